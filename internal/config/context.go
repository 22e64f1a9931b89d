// Package config assembles the application context shared by the CLI
// commands: loaded settings, the central logger, telemetry and the metrics
// registry.
package config

import (
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/swimform/swimform-go/internal/buildinfo"
	"github.com/swimform/swimform-go/internal/conf"
	"github.com/swimform/swimform-go/internal/datastore"
	"github.com/swimform/swimform-go/internal/errors"
	"github.com/swimform/swimform-go/internal/logger"
	"github.com/swimform/swimform-go/internal/observability"
)

const sentryFlushTimeout = 2 * time.Second

// Context holds the overall application state.
type Context struct {
	// ConfigFile is an explicit config path; empty searches the defaults.
	ConfigFile string
	// Viper receives command line flag bindings before Initialize.
	Viper    *viper.Viper
	Settings *conf.Settings
	Build    *buildinfo.Context

	central     *logger.CentralLogger
	sentry      bool
	metricsOnce sync.Once
	metrics     *observability.Metrics
	metricsErr  error
}

// NewContext creates an uninitialized Context.
func NewContext(build *buildinfo.Context) *Context {
	return &Context{
		Viper: viper.New(),
		Build: build,
	}
}

// Initialize loads settings and sets up logging and error telemetry. It
// is safe to call once per process.
func (c *Context) Initialize() error {
	settings, err := conf.LoadWith(c.Viper, c.ConfigFile)
	if err != nil {
		return err
	}
	c.Settings = settings

	logCfg := settings.Logging
	if settings.Debug {
		logCfg.DefaultLevel = "debug"
		if logCfg.Console != nil {
			console := *logCfg.Console
			console.Level = "debug"
			logCfg.Console = &console
		}
	}
	central, err := logger.NewCentralLogger(&logCfg)
	if err != nil {
		return errors.New(err).
			Component("config").
			Category(errors.CategoryConfiguration).
			Context("operation", "init-logger").
			Build()
	}
	logger.SetGlobal(central)
	c.central = central

	if settings.Sentry.Enabled {
		if err := errors.InitSentry(settings.Sentry.DSN, settings.Sentry.Environment, c.Build.GetVersion()); err != nil {
			GetLogger().Warn("error telemetry disabled", logger.Error(err))
		} else {
			c.sentry = true
		}
	}

	GetLogger().Debug("application context initialized",
		logger.String("version", c.Build.GetVersion()),
		logger.String("database", settings.Database.Type),
		logger.Bool("mqtt", settings.MQTT.Enabled),
		logger.Bool("metrics", settings.Metrics.Enabled))
	return nil
}

// Metrics returns the process-wide metrics, creating them on first use.
func (c *Context) Metrics() (*observability.Metrics, error) {
	c.metricsOnce.Do(func() {
		c.metrics, c.metricsErr = observability.NewMetrics()
	})
	return c.metrics, c.metricsErr
}

// OpenStore opens the configured session store. It returns nil without an
// error when persistence is disabled.
func (c *Context) OpenStore() (datastore.Interface, error) {
	if c.Settings == nil {
		return nil, errors.Newf("application context is not initialized").
			Component("config").
			Category(errors.CategoryState).
			Build()
	}
	if c.Settings.Database.Type == "" || c.Settings.Database.Type == conf.DatabaseNone {
		return nil, nil
	}

	store, err := datastore.New(c.Settings)
	if err != nil {
		return nil, err
	}
	if m, err := c.Metrics(); err == nil {
		if s, ok := store.(interface {
			SetMetrics(datastore.MetricsRecorder)
		}); ok {
			s.SetMetrics(m.Datastore)
		}
	}
	if err := store.Open(); err != nil {
		return nil, err
	}
	return store, nil
}

// Close flushes telemetry and the log outputs.
func (c *Context) Close() {
	if c.sentry {
		errors.FlushSentry(sentryFlushTimeout)
	}
	if c.central != nil {
		if err := c.central.Close(); err != nil {
			GetLogger().Warn("failed to close logger", logger.Error(err))
		}
	}
}
