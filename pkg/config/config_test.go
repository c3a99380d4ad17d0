package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, 8050, c.Server.Port)
	assert.Equal(t, 30*time.Second, c.Backend.Timeout)
	assert.Equal(t, "market", c.Dashboard.DefaultTab)
	assert.Equal(t, 20, c.Dashboard.AlertsLimit)
	assert.Equal(t, 50, c.Dashboard.FeedLimit)
	assert.Equal(t, 24, c.Dashboard.HoursBack)
	assert.True(t, c.Dashboard.Markdown)
	assert.Equal(t, 30*time.Second, c.Dashboard.HealthInterval)
	assert.Equal(t, 60*time.Second, c.Dashboard.MarketInterval)
	assert.False(t, c.Kafka.Enabled)
	assert.Equal(t, "findash:updates", c.Redis.Channel)
}

func TestParse_FileValuesWinOverDefaults(t *testing.T) {
	c, err := Parse([]byte(`
environment: prod
dashboard:
  markdown: false
  hours_back: 72
  market_interval: 15s
`))
	require.NoError(t, err)

	assert.False(t, c.Dashboard.Markdown)
	assert.Equal(t, 72, c.Dashboard.HoursBack)
	assert.Equal(t, 15*time.Second, c.Dashboard.MarketInterval)
	assert.Equal(t, 30*time.Second, c.Dashboard.HealthInterval)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"hours_back":    "dashboard:\n  hours_back: 500\n",
		"default_tab":   "dashboard:\n  default_tab: settings\n",
		"feed_category": "dashboard:\n  feed_category: sports\n",
		"kafka_brokers": "kafka:\n  enabled: true\n",
		"log_level":     "log:\n  level: loud\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)

	env := map[string]string{
		"FINSIGHT_API_URL": "http://api:9000",
		"DASHBOARD_PORT":   "9100",
		"KAFKA_BROKERS":    "k1:9092,k2:9092",
		"REDIS_ADDR":       "redis:6379",
		"LOG_LEVEL":        "DEBUG",
	}
	require.NoError(t, c.applyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, "http://api:9000", c.Backend.BaseURL)
	assert.Equal(t, 9100, c.Server.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Kafka.Enabled)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, "debug", c.Log.Level)
	assert.NoError(t, c.Validate())
}

func TestApplyEnv_BadPort(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)
	assert.Error(t, c.applyEnv(func(k string) string {
		if k == "DASHBOARD_PORT" {
			return "eighty"
		}
		return ""
	}))
}

func TestLoadWithEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: test\n"), 0o600))

	t.Setenv("FINSIGHT_API_URL", "http://backend:8000")
	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "http://backend:8000", c.Backend.BaseURL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
