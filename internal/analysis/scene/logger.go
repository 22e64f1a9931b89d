package scene

import "github.com/swimform/swimform-go/internal/logger"

// GetLogger returns the scene module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("analysis.scene")
}
