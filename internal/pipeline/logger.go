package pipeline

import "github.com/swimform/swimform-go/internal/logger"

// GetLogger returns the pipeline logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("pipeline")
}
