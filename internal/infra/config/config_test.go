package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "default", cfg.Tenant)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "overseer.db", cfg.Store.Path)
	assert.Equal(t, "chat", cfg.Oracle.Provider)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Oracle.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Oracle.Timeout)
	assert.Equal(t, 3, cfg.Oracle.MaxRetries)
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
tenant: acme
logger:
  level: debug
  format: json
store:
  driver: yaml
  path: topology.yaml
oracle:
  provider: rules
  rules:
    - contains: recipe
      target: kitchen
  breaker:
    max_failures: 7
routing:
  max_depth: 6
  judge_enabled: true
  failure_phrases: [nope]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "acme", cfg.Tenant)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "yaml", cfg.Store.Driver)
	assert.Equal(t, "rules", cfg.Oracle.Provider)
	require.Len(t, cfg.Oracle.Rules, 1)
	assert.Equal(t, "kitchen", cfg.Oracle.Rules[0].Target)
	assert.Equal(t, uint32(7), cfg.Oracle.Breaker.MaxFailures)
	assert.Equal(t, 6, cfg.Routing.MaxDepth)
	assert.True(t, cfg.Routing.JudgeEnabled)
	assert.Equal(t, []string{"nope"}, cfg.Routing.FailurePhrases)

	// Unset fields still get defaults.
	assert.Equal(t, 3, cfg.Oracle.MaxRetries)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad store driver", func(c *Config) { c.Store.Driver = "postgres" }},
		{"bad oracle provider", func(c *Config) { c.Oracle.Provider = "magic" }},
		{"negative depth", func(c *Config) { c.Routing.MaxDepth = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
