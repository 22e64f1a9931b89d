package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig sets the default value of every configuration key.
// Every key must have a default so AutomaticEnv can override it.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("logging.default_level", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.file_output.enabled", false)
	v.SetDefault("logging.file_output.path", "logs/swimform.log")
	v.SetDefault("logging.file_output.level", "info")

	v.SetDefault("analysis.video.width", 1280)
	v.SetDefault("analysis.video.height", 720)
	v.SetDefault("analysis.video.fps", 30.0)
	v.SetDefault("analysis.video.buffer_frames", 2)
	v.SetDefault("analysis.smoothing_window", 5)
	v.SetDefault("analysis.context_window", 30)
	v.SetDefault("analysis.confidence_floor", 0.5)
	v.SetDefault("analysis.stroke.window", 9)
	v.SetDefault("analysis.stroke.min_interval", 0.5)
	v.SetDefault("analysis.breath.yaw_threshold", 0.35)
	v.SetDefault("analysis.breath.min_hold", 3)
	v.SetDefault("analysis.breath.min_interval", 1.0)
	v.SetDefault("analysis.weights.alignment", 0.20)
	v.SetDefault("analysis.weights.catch", 0.20)
	v.SetDefault("analysis.weights.roll", 0.15)
	v.SetDefault("analysis.weights.kick", 0.15)
	v.SetDefault("analysis.weights.torso", 0.10)
	v.SetDefault("analysis.weights.glide", 0.10)
	v.SetDefault("analysis.weights.baseline", 0.10)
	v.SetDefault("analysis.breath_in_pull_penalty", 10.0)
	v.SetDefault("analysis.annotate", false)
	v.SetDefault("analysis.retain_frames", true)
	v.SetDefault("analysis.view", "")
	v.SetDefault("analysis.water", "")

	v.SetDefault("pose.endpoint", "http://localhost:8000")
	v.SetDefault("pose.timeout", 10*time.Second)
	v.SetDefault("pose.api_key", "")
	v.SetDefault("pose.replay_file", "")

	v.SetDefault("database.type", DatabaseSQLite)
	v.SetDefault("database.sqlite.path", "swimform.db")
	v.SetDefault("database.mysql.host", "localhost")
	v.SetDefault("database.mysql.port", 3306)
	v.SetDefault("database.mysql.username", "")
	v.SetDefault("database.mysql.password", "")
	v.SetDefault("database.mysql.database", "swimform")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic", "swimform")
	v.SetDefault("mqtt.client_id", "swimform")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("mqtt.retain", false)
	v.SetDefault("mqtt.timeout", 5*time.Second)

	v.SetDefault("api.listen", ":8080")
	v.SetDefault("api.cache_ttl", 5*time.Minute)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", ":9090")
	v.SetDefault("metrics.debug", false)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")
}
