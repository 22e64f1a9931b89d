package framesource

import "github.com/swimform/swimform-go/internal/logger"

// GetLogger returns the framesource module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("framesource")
}
