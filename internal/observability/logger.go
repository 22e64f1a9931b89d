package observability

import "github.com/swimform/swimform-go/internal/logger"

// GetLogger returns the observability module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("observability")
}
