package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins" split_words:"true"`
	} `yaml:"server"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	// Storage selects where progress, credentials and the catalog record live:
	// "memory", "sqlite" or "redis".
	Storage struct {
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	// Catalog.CacheTTL bounds the Redis copy of a Postgres-backed catalog.
	Catalog struct {
		CacheTTL string `yaml:"cache_ttl" split_words:"true"`
	} `yaml:"catalog"`
	AI struct {
		BaseURL string `yaml:"base_url" split_words:"true"`
		APIKey  string `yaml:"api_key" split_words:"true"`
		Model   string `yaml:"model"`
		Timeout string `yaml:"timeout"`
	} `yaml:"ai"`
}

// EnvPrefix namespaces environment overrides, e.g. EDUHUB_REDIS_ADDR.
const EnvPrefix = "EDUHUB"

// Load reads YAML config from path, then applies EDUHUB_* environment overrides.
// A missing file is not an error; the environment alone can configure the service.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return cfg, err
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
