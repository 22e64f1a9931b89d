package config

import "github.com/swimform/swimform-go/internal/logger"

// GetLogger returns the application context logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("app")
}
