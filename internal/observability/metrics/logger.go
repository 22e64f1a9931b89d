// Package metrics provides Prometheus metrics for observability.
package metrics

import "github.com/swimform/swimform-go/internal/logger"

// GetLogger returns the metrics module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("metrics")
}
