package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "debug: false\n")

	s, err := Load(path)
	require.NoError(t, err)

	assert.InDelta(t, 30, s.Analysis.Video.FPS, 0)
	assert.Equal(t, 5, s.Analysis.SmoothingWindow)
	assert.Equal(t, 30, s.Analysis.ContextWindow)
	assert.InDelta(t, 0.5, s.Analysis.ConfidenceFloor, 0)
	assert.Equal(t, 9, s.Analysis.Stroke.Window)
	assert.InDelta(t, 1.0, s.Analysis.Weights.Sum(), 1e-9)
	assert.True(t, s.Analysis.RetainFrames)
	assert.Equal(t, 10*time.Second, s.Pose.Timeout)
	assert.Equal(t, DatabaseSQLite, s.Database.Type)
	assert.Equal(t, byte(1), s.MQTT.QoS)
	require.NotNil(t, s.Logging.Console)
	assert.True(t, s.Logging.Console.Enabled)
}

func TestEmbeddedDefaultsMatchDefaultTable(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytesReader(DefaultConfig())))

	d := viper.New()
	setDefaultConfig(d)
	for _, key := range d.AllKeys() {
		assert.True(t, v.IsSet(key), "config.yaml is missing %s", key)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeConfig(t, `
analysis:
  video:
    width: 640
    height: 360
    fps: 25
  confidence_floor: 0.6
  view: side
  water: underwater
pose:
  timeout: 3s
database:
  type: none
`)
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 640, s.Analysis.Video.Width)
	assert.InDelta(t, 25, s.Analysis.Video.FPS, 0)
	assert.InDelta(t, 0.6, s.Analysis.ConfidenceFloor, 0)
	assert.Equal(t, "side", s.Analysis.View)
	assert.Equal(t, 3*time.Second, s.Pose.Timeout)
	assert.Equal(t, DatabaseNone, s.Database.Type)
	assert.Equal(t, 5, s.Analysis.SmoothingWindow, "unset keys keep defaults")
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SWIMFORM_ANALYSIS_SMOOTHING_WINDOW", "7")
	t.Setenv("SWIMFORM_VIDEO_FPS", "60")
	t.Setenv("SWIMFORM_MQTT_BROKER", "tcp://broker:1883")

	s, err := Load(writeConfig(t, "debug: false\n"))
	require.NoError(t, err)
	assert.Equal(t, 7, s.Analysis.SmoothingWindow)
	assert.InDelta(t, 60, s.Analysis.Video.FPS, 0)
	assert.Equal(t, "tcp://broker:1883", s.MQTT.Broker)
}

func TestInvalidEnvironmentValue(t *testing.T) {
	t.Setenv("SWIMFORM_VIDEO_FPS", "fast")

	_, err := Load(writeConfig(t, "debug: false\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SWIMFORM_VIDEO_FPS")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	const key = "SWIMFORM_DOTENV_CHECK"
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "dotenv", os.Getenv(key))
}

func TestSaveYAMLConfig(t *testing.T) {
	s, err := Load(writeConfig(t, "debug: true\n"))
	require.NoError(t, err)
	s.Analysis.SmoothingWindow = 11
	s.Pose.Timeout = 2 * time.Second

	out := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, SaveYAMLConfig(out, s))

	loaded, err := Load(out)
	require.NoError(t, err)
	assert.True(t, loaded.Debug)
	assert.Equal(t, 11, loaded.Analysis.SmoothingWindow)
	assert.Equal(t, 2*time.Second, loaded.Pose.Timeout)
}
