package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseConfig(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	v := viper.New()
	cmd := &cobra.Command{Use: appName}
	require.NoError(t, bindFlags(cmd, v))
	require.NoError(t, cmd.PersistentFlags().Parse(args))
	return loadConfig(v)
}

func TestConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("GO_ENV", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := parseConfig(t)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 1000, cfg.MaxSessions)
	assert.Equal(t, 2.0, cfg.ChatRate)
	assert.Equal(t, 5, cfg.ChatBurst)
	assert.Contains(t, cfg.AllowedOrigins, "http://localhost:5173")
	assert.Empty(t, cfg.DatabaseURL)
}

func TestConfigFlagsAndEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_URL", "postgres://compass@localhost/compass")
	t.Setenv("COMPASS_CHAT_BURST", "9")

	cfg, err := parseConfig(t, "--addr=:9090", "--session-ttl=5m", "--allowed-origins=http://a.test,http://b.test", "-d")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, "postgres://compass@localhost/compass", cfg.DatabaseURL)
	assert.Equal(t, 9, cfg.ChatBurst)
}

func TestConfigValidation(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	t.Run("Production needs a secret", func(t *testing.T) {
		t.Setenv("GO_ENV", "production")
		_, err := parseConfig(t)
		assert.ErrorContains(t, err, "jwt-secret is required")
	})

	t.Run("Sessions must be bounded", func(t *testing.T) {
		_, err := parseConfig(t, "--max-sessions=0")
		assert.Error(t, err)
	})

	t.Run("Chat limiter must allow something", func(t *testing.T) {
		_, err := parseConfig(t, "--chat-rate=0")
		assert.Error(t, err)
	})
}

func TestReadConfigFile(t *testing.T) {
	t.Run("Missing default file is fine", func(t *testing.T) {
		t.Chdir(t.TempDir())
		assert.NoError(t, readConfigFile(viper.New(), ""))
	})

	t.Run("Explicit file", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		path := filepath.Join(t.TempDir(), "compass.yaml")
		require.NoError(t, os.WriteFile(path, []byte("addr: \":7000\"\nmax-sessions: 3\ncatalog-file: catalog.yaml\n"), 0o600))

		v := viper.New()
		cmd := &cobra.Command{Use: appName}
		require.NoError(t, bindFlags(cmd, v))
		require.NoError(t, readConfigFile(v, path))

		cfg, err := loadConfig(v)
		require.NoError(t, err)
		assert.Equal(t, ":7000", cfg.Addr)
		assert.Equal(t, 3, cfg.MaxSessions)
		assert.Equal(t, "catalog.yaml", cfg.CatalogFile)
	})

	t.Run("Explicit file must exist", func(t *testing.T) {
		assert.Error(t, readConfigFile(viper.New(), filepath.Join(t.TempDir(), "nope.yaml")))
	})
}
