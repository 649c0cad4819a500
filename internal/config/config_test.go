package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, "*", cfg.Server.AllowedOrigins)
	require.Equal(t, 10, cfg.Server.ShutdownTimeout)
	require.Equal(t, 60, cfg.Auth.TokenTTLMinutes)
	require.NotEmpty(t, cfg.Database.URL)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SENTINEL_SERVER_PORT", "9999")
	t.Setenv("SENTINEL_AUTH_JWTSECRET", "env-secret")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, "9999", cfg.Server.Port)
	require.Equal(t, "env-secret", cfg.Auth.JWTSecret)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: "9090"
  shutdownTimeout: 5
database:
  url: postgres://db:5432/sentinel_test
auth:
  jwtSecret: file-secret
  tokenTTLMinutes: 15
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, 5, cfg.Server.ShutdownTimeout)
	require.Equal(t, "postgres://db:5432/sentinel_test", cfg.Database.URL)
	require.Equal(t, "file-secret", cfg.Auth.JWTSecret)
	require.Equal(t, 15, cfg.Auth.TokenTTLMinutes)
}
