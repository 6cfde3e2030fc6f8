package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"5250"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// CORSAllowedOrigins lists the UI origins allowed to call the API
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	// MarketsPath optionally points at a JSON file overriding SupportedMarkets
	MarketsPath string `env:"MARKETS_PATH"`

	Data struct {
		// Source is either "json" or "sqlite"
		Source string `env:"DATA_SOURCE" envDefault:"json"`

		// Path of the JSON reference dataset
		Path string `env:"DATA_PATH" envDefault:"data/reference.json"`

		// Path of the SQLite reference database
		DBPath string `env:"DB_PATH" envDefault:"data/buyers.db"`

		// Reload the JSON dataset whenever the file changes
		Watch bool `env:"WATCH_DATA" envDefault:"true"`
	}

	Reload struct {
		// Periodic reload interval in minutes, 0 disables it
		IntervalMinutes int `env:"RELOAD_INTERVAL_MINUTES" envDefault:"0"`

		// Maximum number of retries for a failed load
		MaxRetries int `env:"RELOAD_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"RELOAD_RETRY_DELAY" envDefault:"5"`

		// Capacity of the pending reload queue
		QueueSize int `env:"RELOAD_QUEUE_SIZE" envDefault:"8"`
	}

	Redis struct {
		// Empty address disables result caching
		Addr     string `env:"REDIS_ADDR"`
		Password string `env:"REDIS_PASSWORD"`
		DB       int    `env:"REDIS_DB" envDefault:"0"`

		TTLSeconds int `env:"CACHE_TTL_SECONDS" envDefault:"300"`
	}

	Geocoder struct {
		Enabled  bool   `env:"GEOCODER_ENABLED" envDefault:"true"`
		CacheDir string `env:"GEOCODER_CACHE_DIR" envDefault:"data/geocache"`
		Country  string `env:"GEOCODER_COUNTRY" envDefault:"us"`
	}

	// BoundarySegments is the number of segments in a search boundary ring
	BoundarySegments int `env:"BOUNDARY_SEGMENTS" envDefault:"64"`
}

// LoadConfig reads the configuration from the environment, after loading a
// .env file from the working directory when one exists.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return parse(env.Options{})
}

// LoadConfigFrom reads the configuration from environment only, ignoring
// the process environment.
func LoadConfigFrom(environment map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg, opts); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Data.Source {
	case "json", "sqlite":
	default:
		return fmt.Errorf("DATA_SOURCE must be json or sqlite, got %q", c.Data.Source)
	}
	if c.Reload.MaxRetries < 0 || c.Reload.RetryDelay < 0 || c.Reload.IntervalMinutes < 0 {
		return fmt.Errorf("reload settings must not be negative")
	}
	if c.Reload.QueueSize < 1 {
		return fmt.Errorf("RELOAD_QUEUE_SIZE must be at least 1, got %d", c.Reload.QueueSize)
	}
	if c.BoundarySegments < 3 {
		return fmt.Errorf("BOUNDARY_SEGMENTS must be at least 3, got %d", c.BoundarySegments)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return nil
}

func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Reload.RetryDelay) * time.Second
}

func (c *Config) ReloadInterval() time.Duration {
	return time.Duration(c.Reload.IntervalMinutes) * time.Minute
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Redis.TTLSeconds) * time.Second
}

// NewLogger returns the JSON stdout logger every binary uses.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	return logger
}
