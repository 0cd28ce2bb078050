package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://data.techforpalestine.org/api/v2/casualties_daily.csv", cfg.DailyCSVURL)
	assert.Equal(t, "https://raw.githubusercontent.com/TechForPalestine/palestine-datasets/main/casualties_daily.json", cfg.DailyJSONURL)
	assert.Equal(t, "https://data.techforpalestine.org/api/v2/killed-in-gaza.csv", cfg.NamesCSVURL)
	assert.Equal(t, "Mozilla/5.0", cfg.UserAgent)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "data/raw", cfg.DataDir)
	assert.Equal(t, 12*time.Hour, cfg.NamesTTL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, time.Hour, cfg.RefreshInterval)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "casualty-snapshots", cfg.KafkaTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("DAILY_CSV_URL", "http://example.test/daily.csv")
	t.Setenv("DAILY_JSON_URL", "http://example.test/daily.json")
	t.Setenv("NAMES_CSV_URL", "http://example.test/names.csv")
	t.Setenv("USER_AGENT", "casualtyd/test")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("DATA_DIR", "/tmp/cache")
	t.Setenv("NAMES_TTL", "30m")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("REFRESH_INTERVAL", "15m")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_TOPIC", "snapshots")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://example.test/daily.csv", cfg.DailyCSVURL)
	assert.Equal(t, "http://example.test/daily.json", cfg.DailyJSONURL)
	assert.Equal(t, "http://example.test/names.csv", cfg.NamesCSVURL)
	assert.Equal(t, "casualtyd/test", cfg.UserAgent)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "/tmp/cache", cfg.DataDir)
	assert.Equal(t, 30*time.Minute, cfg.NamesTTL)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 15*time.Minute, cfg.RefreshInterval)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "snapshots", cfg.KafkaTopic)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_NonPositiveDurations(t *testing.T) {
	for _, key := range []string{"FETCH_TIMEOUT", "NAMES_TTL", "SHUTDOWN_TIMEOUT", "REFRESH_INTERVAL"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, "-1s")
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", " , ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("DATA_DIR=/srv/casualty\nNAMES_TTL=6h\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("DATA_DIR")
		os.Unsetenv("NAMES_TTL")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/casualty", cfg.DataDir)
	assert.Equal(t, 6*time.Hour, cfg.NamesTTL)
}

func TestLoad_EnvFileDoesNotOverrideProcessEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_ADDR=:1111\n"), 0o644))
	t.Setenv("HTTP_ADDR", ":2222")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":2222", cfg.HTTPAddr)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}
