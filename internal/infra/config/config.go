// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"overseer-ai/internal/infra/logger"
	"overseer-ai/internal/infra/tracer"
)

// Config is the top-level application configuration.
type Config struct {
	Tenant  string        `yaml:"tenant"` // default tenant served by the daemon
	Logger  logger.Config `yaml:"logger"`
	Tracer  tracer.Config `yaml:"tracer"`
	Store   StoreConfig   `yaml:"store"`
	Oracle  OracleConfig  `yaml:"oracle"`
	Routing RoutingConfig `yaml:"routing"`
}

// StoreConfig selects the topology store backend.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "yaml"
	Path   string `yaml:"path"`   // database file or topology YAML file
}

// OracleConfig configures the decision oracle client.
type OracleConfig struct {
	Provider      string        `yaml:"provider"` // "chat" or "rules"
	BaseURL       string        `yaml:"base_url"`
	Model         string        `yaml:"model"`
	APIKeyEnv     string        `yaml:"api_key_env"` // env var holding the key, never the key itself
	Timeout       time.Duration `yaml:"timeout"`
	MaxRetries    int           `yaml:"max_retries"`     // transient failures only
	RatePerSecond float64       `yaml:"rate_per_second"` // 0 = unlimited
	Breaker       BreakerConfig `yaml:"breaker"`
	Rules         []RuleConfig  `yaml:"rules,omitempty"` // rules provider only
}

// BreakerConfig configures the transport circuit breaker around oracle calls.
type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// RuleConfig is one keyword rule for the rules oracle.
type RuleConfig struct {
	Contains string `yaml:"contains"`
	Target   string `yaml:"target"`
}

// RoutingConfig bounds the delegation protocol.
type RoutingConfig struct {
	MaxAttemptsPerTarget int      `yaml:"max_attempts_per_target"`
	MaxTotalAttempts     int      `yaml:"max_total_attempts"`
	MaxDepth             int      `yaml:"max_depth"`
	JudgeEnabled         bool     `yaml:"judge_enabled"`
	FailurePhrases       []string `yaml:"failure_phrases,omitempty"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied, used when no
// config file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Tenant == "" {
		c.Tenant = "default"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.Path == "" {
		c.Store.Path = "overseer.db"
	}
	if c.Oracle.Provider == "" {
		c.Oracle.Provider = "chat"
	}
	if c.Oracle.BaseURL == "" {
		c.Oracle.BaseURL = "http://localhost:11434/v1"
	}
	if c.Oracle.Timeout <= 0 {
		c.Oracle.Timeout = 30 * time.Second
	}
	if c.Oracle.MaxRetries <= 0 {
		c.Oracle.MaxRetries = 3
	}
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "yaml":
	default:
		return fmt.Errorf("store.driver must be sqlite or yaml, got %q", c.Store.Driver)
	}
	switch c.Oracle.Provider {
	case "chat", "rules":
	default:
		return fmt.Errorf("oracle.provider must be chat or rules, got %q", c.Oracle.Provider)
	}
	if c.Routing.MaxAttemptsPerTarget < 0 || c.Routing.MaxTotalAttempts < 0 || c.Routing.MaxDepth < 0 {
		return fmt.Errorf("routing limits must not be negative")
	}
	return nil
}
