package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/swimform/swimform-go/internal/errors"
)

// envBinding holds metadata for an explicit environment variable binding.
type envBinding struct {
	ConfigKey string             // viper config key
	EnvVar    string             // environment variable name
	Validate  func(string) error // optional validation
}

// getEnvBindings lists the variables that are validated before use. Other
// keys still follow SWIMFORM_<SECTION>_<KEY> through AutomaticEnv.
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "SWIMFORM_DEBUG", validateEnvBool},

		{"analysis.video.width", "SWIMFORM_VIDEO_WIDTH", validateEnvPositiveInt},
		{"analysis.video.height", "SWIMFORM_VIDEO_HEIGHT", validateEnvPositiveInt},
		{"analysis.video.fps", "SWIMFORM_VIDEO_FPS", validateEnvPositiveFloat},
		{"analysis.confidence_floor", "SWIMFORM_CONFIDENCE_FLOOR", validateEnvUnitInterval},

		{"pose.endpoint", "SWIMFORM_POSE_ENDPOINT", validateEnvURL},
		{"pose.timeout", "SWIMFORM_POSE_TIMEOUT", validateEnvDuration},
		{"pose.api_key", "SWIMFORM_POSE_API_KEY", nil},

		{"database.type", "SWIMFORM_DATABASE_TYPE", validateEnvDatabaseType},
		{"database.mysql.password", "SWIMFORM_MYSQL_PASSWORD", nil},

		{"mqtt.broker", "SWIMFORM_MQTT_BROKER", validateEnvURL},
		{"mqtt.password", "SWIMFORM_MQTT_PASSWORD", nil},

		{"sentry.dsn", "SWIMFORM_SENTRY_DSN", nil},
	}
}

// bindEnvVars binds the explicit variables and validates any that are set.
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to bind %s: %v", binding.EnvVar, err))
			continue
		}
		if binding.Validate == nil {
			continue
		}
		if envValue := os.Getenv(binding.EnvVar); envValue != "" {
			if err := binding.Validate(envValue); err != nil {
				warnings = append(warnings, fmt.Sprintf("invalid %s value '%s': %v", binding.EnvVar, envValue, err))
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

// loadDotEnv loads variables from path, or ./.env when path is empty.
// A missing default file is not an error; variables already set in the
// environment win.
func loadDotEnv(path string) error {
	if path == "" {
		path = ".env"
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil
		}
	}
	return godotenv.Load(path)
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f", value)
	}
	return nil
}

func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer: %w", err)
	}
	if n <= 0 {
		return fmt.Errorf("must be positive, got %d", n)
	}
	return nil
}

func validateEnvPositiveFloat(value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid number: %w", err)
	}
	if f <= 0 {
		return fmt.Errorf("must be positive, got %g", f)
	}
	return nil
}

func validateEnvUnitInterval(value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid number: %w", err)
	}
	if f < 0 || f > 1 {
		return fmt.Errorf("must be between 0 and 1, got %g", f)
	}
	return nil
}

func validateEnvDuration(value string) error {
	if _, err := time.ParseDuration(value); err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	return nil
}

func validateEnvURL(value string) error {
	if !strings.Contains(value, "://") {
		return errors.NewStd("must include a scheme, e.g. http:// or tcp://")
	}
	return nil
}

func validateEnvDatabaseType(value string) error {
	switch value {
	case DatabaseNone, DatabaseSQLite, DatabaseMySQL:
		return nil
	default:
		return fmt.Errorf("must be one of %s, %s, %s", DatabaseNone, DatabaseSQLite, DatabaseMySQL)
	}
}
