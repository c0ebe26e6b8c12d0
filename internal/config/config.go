package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// event store backend: "sheets" or "csv"
	StoreBackend         string `toml:"store_backend"`
	SpreadsheetID        string `toml:"spreadsheet_id"`
	SpreadsheetSheetName string `toml:"spreadsheet_sheet_name"`
	CsvStorePath         string `toml:"csv_store_path"`

	// dashboard reads cache
	CacheTTLSeconds int `toml:"cache_ttl_seconds"`

	// redis (sessions, rate limiting)
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// prometheus
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// new entry writes allowed per minute, per owner
	EntryRateLimitAllowedPerMin int `toml:"entry_rate_limit_allowed_per_min"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func Load(env, path string) (*Config, error) {
	var tomlFile Toml
	if _, err := toml.DecodeFile(path, &tomlFile); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := tomlFile.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env %s not set", env)
	}

	if cfg.CacheTTLSeconds <= 0 {
		cfg.CacheTTLSeconds = DefaultCacheTTLSeconds
	}
	if cfg.EntryRateLimitAllowedPerMin <= 0 {
		cfg.EntryRateLimitAllowedPerMin = DefaultEntryRateLimitPerMin
	}
	if cfg.SpreadsheetSheetName == "" {
		cfg.SpreadsheetSheetName = DefaultSheetName
	}

	return cfg, nil
}

const (
	// DefaultCacheTTLSeconds matches the 10 minute dashboard read cache
	DefaultCacheTTLSeconds      = 10 * 60
	DefaultEntryRateLimitPerMin = 30
	DefaultSheetName            = "Tabellenblatt1"
)
