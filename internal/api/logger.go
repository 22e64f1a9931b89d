package api

import "github.com/swimform/swimform-go/internal/logger"

// GetLogger returns the api module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}
