package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetingd/internal/platform/config"
)

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfg, err := config.New(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, ".meetingd", "meetingd.db"), cfg.DBPath)
	assert.Equal(t, "memory", cfg.Lock.Backend)
	assert.Equal(t, 20.0, cfg.Pace.CriticalAbovePct)
	assert.Equal(t, 10.0, cfg.Pace.BehindAbovePct)
	assert.Equal(t, -5.0, cfg.Pace.AheadBelowPct)
	assert.Equal(t, 5, cfg.Alert.ThrottlePerOrgPerHour)
	assert.Equal(t, 8*time.Hour, cfg.Cleanup.StaleAfter)
	assert.Equal(t, "sqlite", cfg.Snapshot.Store)
}

func TestNewRequiresDataDir(t *testing.T) {
	t.Parallel()
	_, err := config.New(" ")
	require.Error(t, err)
}

func TestLoadReadsYAMLFromDataDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	raw := `
timezone: UTC
pace:
  critical_above_pct: 30
  behind_above_pct: 15
lock:
  backend: redis
  redis:
    addr: 127.0.0.1:6379
    ttl: 3s
cleanup:
  stale_after: 4h
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "meetingd.yaml"), []byte(raw), 0o644))

	cfg, err := config.Load("", dir)
	require.NoError(t, err)
	assert.Equal(t, 30.0, cfg.Pace.CriticalAbovePct)
	assert.Equal(t, 15.0, cfg.Pace.BehindAbovePct)
	assert.Equal(t, -5.0, cfg.Pace.AheadBelowPct)
	assert.Equal(t, "redis", cfg.Lock.Backend)
	assert.Equal(t, 3*time.Second, cfg.Lock.Redis.TTL)
	assert.Equal(t, 4*time.Hour, cfg.Cleanup.StaleAfter)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[lock]\nbackend = \"redis\"\n"), 0o644))

	_, err := config.Load(path, dir)
	require.ErrorContains(t, err, "lock.redis.addr")
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	t.Parallel()
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), t.TempDir())
	require.Error(t, err)
}
