package errors

import (
	"fmt"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

// TelemetryReporter receives every built EnhancedError while enabled
type TelemetryReporter interface {
	ReportError(err *EnhancedError)
	IsEnabled() bool
}

// SentryReporter forwards errors to Sentry
type SentryReporter struct {
	enabled bool
}

// NewSentryReporter returns a reporter; the Sentry client must already be
// initialized with InitSentry.
func NewSentryReporter(enabled bool) *SentryReporter {
	return &SentryReporter{enabled: enabled}
}

func (sr *SentryReporter) IsEnabled() bool {
	return sr != nil && sr.enabled
}

// ReportError sends ee once. Context values become Sentry contexts, and
// events are fingerprinted by component and category.
func (sr *SentryReporter) ReportError(ee *EnhancedError) {
	if !sr.IsEnabled() || ee == nil || ee.IsReported() {
		return
	}

	title := errorTitle(ee)
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", ee.Component)
		scope.SetTag("category", string(ee.Category))
		if ee.Priority != "" {
			scope.SetTag("priority", ee.Priority)
		}
		for key, value := range ee.Context {
			scope.SetContext(key, map[string]any{"value": value})
		}
		level := levelForCategory(ee.Category)
		scope.SetLevel(level)
		scope.SetFingerprint([]string{title, ee.Component, string(ee.Category)})

		event := sentry.NewEvent()
		event.Level = level
		event.Message = fmt.Sprintf("[%s] %s", ee.Category, ee.Error())
		event.Exception = []sentry.Exception{{Type: title, Value: ee.Error()}}
		sentry.CaptureEvent(event)
	})

	ee.MarkReported()
}

// InitSentry initializes the Sentry client and installs a SentryReporter.
func InitSentry(dsn, environment, release string) error {
	if dsn == "" {
		return NewStd("sentry dsn is empty")
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     release,
	}); err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	SetTelemetryReporter(NewSentryReporter(true))
	return nil
}

// FlushSentry waits up to timeout for queued events.
func FlushSentry(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

func errorTitle(ee *EnhancedError) string {
	parts := make([]string, 0, 3)
	if ee.Component != "" && ee.Component != ComponentUnknown {
		parts = append(parts, titleCase(ee.Component))
	}
	parts = append(parts, titleCase(strings.ReplaceAll(string(ee.Category), "-", " "))+" Error")
	if op, ok := ee.Context["operation"].(string); ok && op != "" {
		parts = append(parts, titleCase(strings.ReplaceAll(op, "_", " ")))
	}
	return strings.Join(parts, " ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func levelForCategory(category ErrorCategory) sentry.Level {
	switch category {
	case CategoryValidation, CategoryNotFound, CategoryCancellation:
		return sentry.LevelWarning
	default:
		return sentry.LevelError
	}
}
