package mqtt

import "github.com/swimform/swimform-go/internal/logger"

// GetLogger returns the mqtt module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("mqtt")
}
