package conf

import (
	"fmt"
	"math"
	"net/url"
	"strings"
)

// ValidationError collects every problem found in a Settings value.
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %v", ve.Errors)
}

// weightTolerance is how far the score weights may sum from 1.
const weightTolerance = 0.01

// ValidateSettings validates the entire Settings struct.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	for _, check := range []func(*Settings) error{
		validateAnalysisSettings,
		validatePoseSettings,
		validateDatabaseSettings,
		validateMQTTSettings,
		validateSentrySettings,
	} {
		if err := check(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateAnalysisSettings(s *Settings) error {
	a := &s.Analysis
	var problems []string

	if a.Video.Width <= 0 || a.Video.Height <= 0 {
		problems = append(problems, fmt.Sprintf("video size must be positive, got %dx%d", a.Video.Width, a.Video.Height))
	}
	if a.Video.FPS <= 0 {
		problems = append(problems, fmt.Sprintf("video fps must be positive, got %g", a.Video.FPS))
	}
	if a.SmoothingWindow < 1 {
		problems = append(problems, "smoothing window must be at least 1")
	}
	if a.ContextWindow < 1 {
		problems = append(problems, "context window must be at least 1")
	}
	if a.ConfidenceFloor < 0 || a.ConfidenceFloor > 1 {
		problems = append(problems, fmt.Sprintf("confidence floor must be in [0,1], got %g", a.ConfidenceFloor))
	}
	if a.Stroke.Window < 3 {
		problems = append(problems, "stroke window must be at least 3")
	}
	if a.Breath.YawThreshold <= 0 {
		problems = append(problems, "breath yaw threshold must be positive")
	}
	if sum := a.Weights.Sum(); math.Abs(sum-1) > weightTolerance {
		problems = append(problems, fmt.Sprintf("score weights must sum to 1, got %.3f", sum))
	}
	if !oneOf(a.View, "", "side", "front", "top") {
		problems = append(problems, fmt.Sprintf("unknown view %q", a.View))
	}
	if !oneOf(a.Water, "", "underwater", "above_water", "mixed") {
		problems = append(problems, fmt.Sprintf("unknown water position %q", a.Water))
	}
	if (a.View == "") != (a.Water == "") {
		problems = append(problems, "view and water must be forced together")
	}

	if len(problems) > 0 {
		return fmt.Errorf("analysis settings: %s", strings.Join(problems, "; "))
	}
	return nil
}

func validatePoseSettings(s *Settings) error {
	if s.Pose.ReplayFile != "" {
		return nil
	}
	if s.Pose.Endpoint == "" {
		return fmt.Errorf("pose settings: endpoint or replay file is required")
	}
	u, err := url.Parse(s.Pose.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("pose settings: invalid endpoint %q", s.Pose.Endpoint)
	}
	return nil
}

func validateDatabaseSettings(s *Settings) error {
	switch s.Database.Type {
	case "", DatabaseNone:
		return nil
	case DatabaseSQLite:
		if s.Database.SQLite.Path == "" {
			return fmt.Errorf("database settings: sqlite path is required")
		}
	case DatabaseMySQL:
		m := s.Database.MySQL
		if m.Host == "" || m.Database == "" || m.Username == "" {
			return fmt.Errorf("database settings: mysql host, database and username are required")
		}
		if m.Port <= 0 || m.Port > 65535 {
			return fmt.Errorf("database settings: invalid mysql port %d", m.Port)
		}
	default:
		return fmt.Errorf("database settings: unknown type %q", s.Database.Type)
	}
	return nil
}

func validateMQTTSettings(s *Settings) error {
	m := s.MQTT
	if !m.Enabled {
		return nil
	}
	if m.Broker == "" {
		return fmt.Errorf("mqtt settings: broker is required")
	}
	if m.Topic == "" {
		return fmt.Errorf("mqtt settings: topic is required")
	}
	if m.QoS > 2 {
		return fmt.Errorf("mqtt settings: qos must be 0, 1 or 2, got %d", m.QoS)
	}
	return nil
}

func validateSentrySettings(s *Settings) error {
	if s.Sentry.Enabled && s.Sentry.DSN == "" {
		return fmt.Errorf("sentry settings: dsn is required when enabled")
	}
	return nil
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
