package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: ":9090"
  mode: release
remover:
  endpoint: http://bg.local/remove-bg
  timeout: 5s
removebg:
  api_key: abc
redis:
  enabled: true
  ttl: 1h
export:
  keep_files: true
  sweep_schedule: "@every 5m"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "http://bg.local/remove-bg", cfg.Remover.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.Remover.Timeout)
	assert.Equal(t, "abc", cfg.RemoveBG.APIKey)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.True(t, cfg.Export.KeepFiles)
	assert.Equal(t, "@every 5m", cfg.Export.SweepSchedule)

	// 未出现的键保持默认值
	assert.Equal(t, "https://api.remove.bg/v1.0/removebg", cfg.RemoveBG.APIURL)
	assert.Equal(t, int64(12*1024*1024), cfg.Upload.MaxSize)
	assert.Equal(t, "./output", cfg.Export.OutputDir)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestNew_FallsBackToDefaults(t *testing.T) {
	cfg, err := New(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestNew_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
removebg:
  api_key: abc
  timeout: [oops
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := New(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidServerMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  mode: production\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid server.mode "production"`)
}

func TestNew_InvalidServerModeFromEnv(t *testing.T) {
	t.Setenv("BGSWAP_SERVER_MODE", "verbose")

	_, err := New(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server.mode")
}

func TestNew_EnvOverride(t *testing.T) {
	t.Setenv("BGSWAP_REMOVEBG_API_KEY", "from-env")
	t.Setenv("BGSWAP_UPLOAD_MAX_DIMENSION", "1024")

	cfg, err := New(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.RemoveBG.APIKey)
	assert.Equal(t, 1024, cfg.Upload.MaxDimension)
}
