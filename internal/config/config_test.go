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
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromPath_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":9090"
jwt:
  secret: a-very-long-test-secret
auth:
  max_login_attempts: 3
  login_window: 1m
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "development", cfg.Server.Mode)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 3, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, time.Minute, cfg.Auth.LoginWindow)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 24, cfg.JWT.ExpiresIn)
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromPath_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"short secret", "jwt:\n  secret: short\n"},
		{"unknown driver", "store:\n  driver: sqlite\n"},
		{"bad cron", "jobs:\n  enabled: true\n  no_show_sweep: every minute\n"},
		{"bad log level", "log:\n  level: chatty\n"},
		{"postgres without host", "store:\n  driver: postgres\ndatabase:\n  host: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromPath(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingDefaultFileFallsBack(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Driver)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TIMETIDY_JWT_SECRET", "secret-from-the-environment")
	t.Setenv("TIMETIDY_DB_PORT", "6543")
	t.Setenv("TIMETIDY_STORE_DRIVER", "postgres")

	cfg, err := LoadFromPath(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "secret-from-the-environment", cfg.JWT.Secret)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://timetidy:@localhost:6543/timetidy?sslmode=disable", cfg.Database.URL())
}
