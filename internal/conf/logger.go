package conf

import "github.com/swimform/swimform-go/internal/logger"

// GetLogger returns the config package logger scoped to the config module.
// It is fetched from the global logger on each call so it follows the
// central logger once that is installed.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
