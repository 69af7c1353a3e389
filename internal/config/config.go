package config

import (
	"log/slog"
	"strings"
	"time"
)

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

// SourceConfig controls the story search endpoint.
type SourceConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	Tags        string `mapstructure:"tags"`
	HitsPerPage int    `mapstructure:"hits_per_page"`
	Timeout     string `mapstructure:"timeout"` // duration string, e.g., "10s"
}

// CacheConfig controls the query-layer cache of the last fetched batch.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	TTL     string `mapstructure:"ttl"` // duration string, e.g., "5m"
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ServerConfig controls the HTTP page and API.
type ServerConfig struct {
	Addr            string `mapstructure:"addr"`
	RefreshInterval string `mapstructure:"refresh_interval"` // "0" disables periodic refresh
}

// Config is the top-level configuration structure.
type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Source SourceConfig `mapstructure:"source"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Server ServerConfig `mapstructure:"server"`
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Source.BaseURL == "" {
		c.Source.BaseURL = "https://hn.algolia.com/api/v1"
	}
	if c.Source.Tags == "" {
		c.Source.Tags = "front_page"
	}
	if c.Source.HitsPerPage <= 0 {
		c.Source.HitsPerPage = 100
	}
	if c.Source.Timeout == "" {
		c.Source.Timeout = "10s"
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = "5m"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RefreshInterval == "" {
		c.Server.RefreshInterval = "0"
	}
}

// SlogLevel maps App.LogLevel onto a slog level; unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.App.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SourceTimeout is the per-request timeout for the search endpoint.
func (c Config) SourceTimeout() (time.Duration, error) {
	return parseDuration("source.timeout", c.Source.Timeout)
}

// CacheTTL is how long a cached batch stays valid.
func (c Config) CacheTTL() (time.Duration, error) {
	return parseDuration("cache.ttl", c.Cache.TTL)
}

// RefreshInterval is the period of the background refresher; 0 disables it.
func (c Config) RefreshInterval() (time.Duration, error) {
	return parseDuration("server.refresh_interval", c.Server.RefreshInterval)
}
