package pose

import "github.com/swimform/swimform-go/internal/logger"

// GetLogger returns the pose module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("pose")
}
