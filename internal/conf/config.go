// Package conf provides configuration management for swimform.
//
// Settings are read with a dedicated viper instance in this order of
// precedence: explicit flags bound by the caller, SWIMFORM_* environment
// variables (optionally from a .env file), the YAML config file, and the
// defaults in defaults.go.
package conf

import (
	"bytes"
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/swimform/swimform-go/internal/errors"
	"github.com/swimform/swimform-go/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// EnvPrefix is the environment variable prefix.
const EnvPrefix = "SWIMFORM"

// Settings is the root of the swimform configuration.
type Settings struct {
	Debug    bool                 `yaml:"debug" mapstructure:"debug" json:"debug"`
	Logging  logger.LoggingConfig `yaml:"logging" mapstructure:"logging" json:"logging"`
	Analysis AnalysisSettings     `yaml:"analysis" mapstructure:"analysis" json:"analysis"`
	Pose     PoseSettings         `yaml:"pose" mapstructure:"pose" json:"pose"`
	Database DatabaseSettings     `yaml:"database" mapstructure:"database" json:"database"`
	MQTT     MQTTSettings         `yaml:"mqtt" mapstructure:"mqtt" json:"mqtt"`
	API      APISettings          `yaml:"api" mapstructure:"api" json:"api"`
	Metrics  MetricsSettings      `yaml:"metrics" mapstructure:"metrics" json:"metrics"`
	Sentry   SentrySettings       `yaml:"sentry" mapstructure:"sentry" json:"sentry"`
}

// VideoSettings describes the raw rgb24 input stream.
type VideoSettings struct {
	Width        int     `yaml:"width" mapstructure:"width" json:"width"`
	Height       int     `yaml:"height" mapstructure:"height" json:"height"`
	FPS          float64 `yaml:"fps" mapstructure:"fps" json:"fps"`
	BufferFrames int     `yaml:"buffer_frames" mapstructure:"buffer_frames" json:"buffer_frames"`
}

// StrokeSettings tunes the stroke detector.
type StrokeSettings struct {
	Window      int     `yaml:"window" mapstructure:"window" json:"window"`                   // samples, odd
	MinInterval float64 `yaml:"min_interval" mapstructure:"min_interval" json:"min_interval"` // seconds
}

// BreathSettings tunes the breath detector.
type BreathSettings struct {
	YawThreshold float64 `yaml:"yaw_threshold" mapstructure:"yaw_threshold" json:"yaw_threshold"`
	MinHold      int     `yaml:"min_hold" mapstructure:"min_hold" json:"min_hold"`             // frames
	MinInterval  float64 `yaml:"min_interval" mapstructure:"min_interval" json:"min_interval"` // seconds
}

// WeightSettings are the composite score weights.
type WeightSettings struct {
	Alignment float64 `yaml:"alignment" mapstructure:"alignment" json:"alignment"`
	Catch     float64 `yaml:"catch" mapstructure:"catch" json:"catch"`
	Roll      float64 `yaml:"roll" mapstructure:"roll" json:"roll"`
	Kick      float64 `yaml:"kick" mapstructure:"kick" json:"kick"`
	Torso     float64 `yaml:"torso" mapstructure:"torso" json:"torso"`
	Glide     float64 `yaml:"glide" mapstructure:"glide" json:"glide"`
	Baseline  float64 `yaml:"baseline" mapstructure:"baseline" json:"baseline"`
}

// Sum returns the total weight.
func (w WeightSettings) Sum() float64 {
	return w.Alignment + w.Catch + w.Roll + w.Kick + w.Torso + w.Glide + w.Baseline
}

// AnalysisSettings holds the analysis pipeline thresholds.
type AnalysisSettings struct {
	Video               VideoSettings  `yaml:"video" mapstructure:"video" json:"video"`
	SmoothingWindow     int            `yaml:"smoothing_window" mapstructure:"smoothing_window" json:"smoothing_window"`
	ContextWindow       int            `yaml:"context_window" mapstructure:"context_window" json:"context_window"`
	ConfidenceFloor     float64        `yaml:"confidence_floor" mapstructure:"confidence_floor" json:"confidence_floor"`
	Stroke              StrokeSettings `yaml:"stroke" mapstructure:"stroke" json:"stroke"`
	Breath              BreathSettings `yaml:"breath" mapstructure:"breath" json:"breath"`
	Weights             WeightSettings `yaml:"weights" mapstructure:"weights" json:"weights"`
	BreathInPullPenalty float64        `yaml:"breath_in_pull_penalty" mapstructure:"breath_in_pull_penalty" json:"breath_in_pull_penalty"`
	Annotate            bool           `yaml:"annotate" mapstructure:"annotate" json:"annotate"`
	RetainFrames        bool           `yaml:"retain_frames" mapstructure:"retain_frames" json:"retain_frames"`
	// View and Water force the camera context when set ("side", "underwater", ...).
	View  string `yaml:"view" mapstructure:"view" json:"view"`
	Water string `yaml:"water" mapstructure:"water" json:"water"`
}

// PoseSettings configures the pose provider.
type PoseSettings struct {
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint" json:"endpoint"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout" json:"timeout"`
	APIKey     string        `yaml:"api_key" mapstructure:"api_key" json:"-"`
	ReplayFile string        `yaml:"replay_file" mapstructure:"replay_file" json:"replay_file"` // JSON lines of landmark sets, replaces the service
}

// Database types.
const (
	DatabaseNone   = "none"
	DatabaseSQLite = "sqlite"
	DatabaseMySQL  = "mysql"
)

// SQLiteSettings configures the SQLite store.
type SQLiteSettings struct {
	Path string `yaml:"path" mapstructure:"path" json:"path"`
}

// MySQLSettings configures the MySQL store.
type MySQLSettings struct {
	Host     string `yaml:"host" mapstructure:"host" json:"host"`
	Port     int    `yaml:"port" mapstructure:"port" json:"port"`
	Username string `yaml:"username" mapstructure:"username" json:"username"`
	Password string `yaml:"password" mapstructure:"password" json:"-"`
	Database string `yaml:"database" mapstructure:"database" json:"database"`
}

// DatabaseSettings selects and configures session persistence.
type DatabaseSettings struct {
	Type   string         `yaml:"type" mapstructure:"type" json:"type"`
	SQLite SQLiteSettings `yaml:"sqlite" mapstructure:"sqlite" json:"sqlite"`
	MySQL  MySQLSettings  `yaml:"mysql" mapstructure:"mysql" json:"mysql"`
}

// MQTTSettings configures event publishing.
type MQTTSettings struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	Broker   string        `yaml:"broker" mapstructure:"broker" json:"broker"`
	Topic    string        `yaml:"topic" mapstructure:"topic" json:"topic"`
	ClientID string        `yaml:"client_id" mapstructure:"client_id" json:"client_id"`
	Username string        `yaml:"username" mapstructure:"username" json:"username"`
	Password string        `yaml:"password" mapstructure:"password" json:"-"`
	QoS      byte          `yaml:"qos" mapstructure:"qos" json:"qos"`
	Retain   bool          `yaml:"retain" mapstructure:"retain" json:"retain"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout" json:"timeout"`
}

// APISettings configures the read-only HTTP API.
type APISettings struct {
	Listen   string        `yaml:"listen" mapstructure:"listen" json:"listen"`
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl" json:"cache_ttl"`
}

// MetricsSettings configures the Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	Listen  string `yaml:"listen" mapstructure:"listen" json:"listen"`
	Debug   bool   `yaml:"debug" mapstructure:"debug" json:"debug"` // expose pprof
}

// SentrySettings configures error telemetry.
type SentrySettings struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	DSN         string `yaml:"dsn" mapstructure:"dsn" json:"-"`
	Environment string `yaml:"environment" mapstructure:"environment" json:"environment"`
}

// Load reads settings from configFile, or from the first config.yaml found
// in the default paths, falling back to the embedded defaults.
func Load(configFile string) (*Settings, error) {
	return LoadWith(viper.New(), configFile)
}

// LoadWith is Load on a caller-supplied viper instance, typically one with
// command-line flags already bound.
func LoadWith(v *viper.Viper, configFile string) (*Settings, error) {
	if err := initViper(v, configFile); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal").
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func initViper(v *viper.Viper, configFile string) error {
	setDefaultConfig(v)
	v.SetConfigType("yaml")

	if err := loadDotEnv(""); err != nil {
		GetLogger().Warn("failed to load .env file", logger.Error(err))
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnvVars(v); err != nil {
		return err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.New(err).
				Component("conf").
				Category(errors.CategoryConfiguration).
				Context("config_file", configFile).
				Build()
		}
		return nil
	}

	v.SetConfigName("config")
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return err
	}
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}

	err = v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) {
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "read-config").
			Build()
	}

	GetLogger().Debug("no config file found, using embedded defaults")
	if err := v.ReadConfig(bytes.NewReader(DefaultConfig())); err != nil {
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "read-default-config").
			Build()
	}
	return nil
}

// DefaultConfig returns the embedded default config.yaml.
func DefaultConfig() []byte {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		// The file is compiled in; a read failure is a build defect.
		panic(err)
	}
	return data
}

// GetDefaultConfigPaths returns the directories searched for config.yaml:
// the working directory, the user config directory and, on Unix, /etc.
func GetDefaultConfigPaths() ([]string, error) {
	paths := []string{"."}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "get-user-config-dir").
			Build()
	}
	paths = append(paths, filepath.Join(configDir, "swimform"))

	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/swimform")
	}
	return paths, nil
}

// SaveYAMLConfig writes settings to configPath atomically, through a
// temporary file in the same directory. Comments are not preserved.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "marshal-yaml").
			Build()
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryFileIO).
			Context("operation", "create-temp").
			Build()
	}
	tempFileName := tempFile.Name()
	defer func() { _ = os.Remove(tempFileName) }()

	if _, err := tempFile.Write(yamlData); err != nil {
		_ = tempFile.Close()
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryFileIO).
			Context("operation", "write-temp").
			Build()
	}
	if err := tempFile.Close(); err != nil {
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryFileIO).
			Context("operation", "close-temp").
			Build()
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryFileIO).
			Context("config_file", configPath).
			Build()
	}
	return nil
}
