package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Cache.PhoneTTL)
	assert.Equal(t, "customer_first", cfg.Quota.Precedence)
	assert.Equal(t, 10*time.Second, cfg.Dispatcher.AttemptTimeout)
	assert.Equal(t, int64(300), cfg.Pinpoint.TTLSeconds)
	require.Len(t, cfg.Providers, 1)
	assert.Equal(t, "pinpoint", cfg.Providers[0].Kind)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cache:
  backend: memory
  phone_ttl: 15m
quota:
  precedence: package_first
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 15*time.Minute, cfg.Cache.PhoneTTL)
	assert.Equal(t, "package_first", cfg.Quota.Precedence)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("NOTIFIER_QUOTA_PRECEDENCE", "package_first")
	t.Setenv("NOTIFIER_HTTP_ADDR", ":9090")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "package_first", cfg.Quota.Precedence)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
}

func TestLoad_RejectsUnknownPrecedence(t *testing.T) {
	t.Setenv("NOTIFIER_QUOTA_PRECEDENCE", "whatever")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota.precedence")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
