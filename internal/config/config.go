// Package config loads FlowState service configuration from an optional YAML
// file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BTreeMap/FlowState/internal/util"
)

// Default configuration constants
const (
	DefaultAddr          = ":8080"
	DefaultStateTTL      = 30 * time.Minute
	DefaultRefreshTTL    = 30 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
	DefaultDynamoTable   = "conversation_states"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
)

// Config represents the service configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Flow   FlowConfig   `yaml:"flow"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

// StoreConfig selects and configures the state store backend
type StoreConfig struct {
	Backend       string        `yaml:"backend"` // memory, sqlite, postgres or dynamodb; empty picks from DSN
	DSN           string        `yaml:"dsn"`
	DynamoTable   string        `yaml:"dynamo_table"`
	SweepInterval time.Duration `yaml:"sweep_interval"` // negative disables the sweeper
}

// FlowConfig contains conversation state lifetimes
type FlowConfig struct {
	StateTTL   time.Duration `yaml:"state_ttl"`
	RefreshTTL time.Duration `yaml:"refresh_ttl"`
}

// LogConfig contains logger configuration
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Load reads configuration from a YAML file, then applies environment overrides and defaults.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	applyEnv(cfg)
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when neither file nor environment set anything.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "", "memory", "sqlite", "postgres", "dynamodb":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.Flow.StateTTL <= 0 || c.Flow.RefreshTTL <= 0 {
		return fmt.Errorf("flow TTLs must be positive")
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FLOWD_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	cfg.Server.AllowedOrigins = util.ParseListEnv("FLOWD_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)

	if v := os.Getenv("FLOWD_STORE"); v != "" {
		cfg.Store.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("FLOWD_DYNAMO_TABLE"); v != "" {
		cfg.Store.DynamoTable = v
	}
	cfg.Store.SweepInterval = util.ParseDurationEnv("FLOWD_SWEEP_INTERVAL", cfg.Store.SweepInterval)

	cfg.Flow.StateTTL = util.ParseDurationEnv("FLOWD_STATE_TTL", cfg.Flow.StateTTL)
	cfg.Flow.RefreshTTL = util.ParseDurationEnv("FLOWD_REFRESH_TTL", cfg.Flow.RefreshTTL)

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(strings.TrimSpace(v))
	}
	if util.ParseBoolEnv("FLOWD_DEBUG", false) {
		cfg.Log.Level = "debug"
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Store.DynamoTable == "" {
		cfg.Store.DynamoTable = DefaultDynamoTable
	}
	if cfg.Store.SweepInterval == 0 {
		cfg.Store.SweepInterval = DefaultSweepInterval
	}
	if cfg.Flow.StateTTL == 0 {
		cfg.Flow.StateTTL = DefaultStateTTL
	}
	if cfg.Flow.RefreshTTL == 0 {
		cfg.Flow.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
