package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFrom_Defaults(t *testing.T) {
	cfg, err := LoadConfigFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "5250", cfg.Port)
	assert.Equal(t, "json", cfg.Data.Source)
	assert.Equal(t, "data/reference.json", cfg.Data.Path)
	assert.True(t, cfg.Data.Watch)
	assert.Equal(t, 3, cfg.Reload.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.RetryDelay())
	assert.Equal(t, time.Duration(0), cfg.ReloadInterval())
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL())
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 64, cfg.BoundarySegments)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "us", cfg.Geocoder.Country)
}

func TestLoadConfigFrom_Overrides(t *testing.T) {
	cfg, err := LoadConfigFrom(map[string]string{
		"PORT":                    "8080",
		"LOG_LEVEL":               "debug",
		"DATA_SOURCE":             "sqlite",
		"DB_PATH":                 "/var/lib/buyers.db",
		"RELOAD_INTERVAL_MINUTES": "15",
		"REDIS_ADDR":              "localhost:6379",
		"REDIS_DB":                "2",
		"CORS_ALLOWED_ORIGINS":    "https://a.example,https://b.example",
		"BOUNDARY_SEGMENTS":       "128",
	})
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.Data.Source)
	assert.Equal(t, "/var/lib/buyers.db", cfg.Data.DBPath)
	assert.Equal(t, 15*time.Minute, cfg.ReloadInterval())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 128, cfg.BoundarySegments)
	assert.Equal(t, logrus.DebugLevel, cfg.NewLogger().GetLevel())
}

func TestLoadConfigFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "Unknown source", env: map[string]string{"DATA_SOURCE": "csv"}},
		{name: "Negative retries", env: map[string]string{"RELOAD_MAX_RETRIES": "-1"}},
		{name: "Empty queue", env: map[string]string{"RELOAD_QUEUE_SIZE": "0"}},
		{name: "Too few segments", env: map[string]string{"BOUNDARY_SEGMENTS": "2"}},
		{name: "Bad log level", env: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "Not a number", env: map[string]string{"REDIS_DB": "two"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFrom(tt.env)
			assert.Error(t, err)
		})
	}
}
