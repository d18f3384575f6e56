package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, "sqlite3", cfg.Storage.Driver)
	assert.Equal(t, "orgdex.db", cfg.Storage.SQLitePath)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.True(t, cfg.Observability.MetricsEnabled)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ORGDEX_PORT", "3000")
	t.Setenv("ORGDEX_SQLITE_PATH", ":memory:")
	t.Setenv("ORGDEX_LOG_LEVEL", "debug")
	t.Setenv("ORGDEX_RATELIMIT_WINDOW", "30s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, ":memory:", cfg.Storage.SQLitePath)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.WindowDuration)
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orgdex.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "8181"
storage:
  driver: sqlite3
  sqlite_path: /var/lib/orgdex/directory.db
observability:
  log_level: warn
`), 0o644))
	t.Setenv("ORGDEX_CONFIG", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8181", cfg.Server.Port)
	assert.Equal(t, "/var/lib/orgdex/directory.db", cfg.Storage.SQLitePath)
	assert.Equal(t, "warn", cfg.Observability.LogLevel)
}

func TestLoadConfig_EnvWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orgdex.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"8181\"\n"), 0o644))
	t.Setenv("ORGDEX_CONFIG", path)
	t.Setenv("ORGDEX_PORT", "8282")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8282", cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "same ports",
			mutate:  func(c *Config) { c.Server.HealthPort = c.Server.Port },
			wantErr: "must be different",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Storage.Driver = "oracle" },
			wantErr: "invalid storage driver",
		},
		{
			name: "postgres without url",
			mutate: func(c *Config) {
				c.Storage.Driver = "postgres"
				c.Storage.PostgresURL = ""
			},
			wantErr: "postgres URL is required",
		},
		{
			name: "otel without endpoint",
			mutate: func(c *Config) {
				c.Observability.OTelEnabled = true
				c.Observability.OTelEndpoint = ""
			},
			wantErr: "OpenTelemetry endpoint is required",
		},
		{
			name: "rate limit zero requests",
			mutate: func(c *Config) {
				c.RateLimit.Enabled = true
				c.RateLimit.RequestsPerWindow = 0
			},
			wantErr: "must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orgdex.yaml")
	require.NoError(t, os.WriteFile(path, []byte("observability:\n  log_level: info\n"), 0o644))

	changes := make(chan *Config, 1)
	stop, err := Watch(path,
		func(cfg *Config) {
			select {
			case changes <- cfg:
			default:
			}
		},
		func(err error) { t.Logf("watch error: %v", err) },
	)
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(path, []byte("observability:\n  log_level: debug\n"), 0o644))

	select {
	case cfg := <-changes:
		assert.Equal(t, "debug", cfg.Observability.LogLevel)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
