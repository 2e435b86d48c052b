package adapter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFrom_Defaults(t *testing.T) {
	cfg, err := LoadConfigFrom(t.TempDir())
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.API.BaseURL, cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, 10, cfg.UI.ChartWindow)
	assert.Equal(t, 20, cfg.UI.AverageWindow)
	assert.Equal(t, cfg.API.BaseURL, cfg.Connectivity.ProbeURL, "probe defaults to the catalog host")
	assert.True(t, cfg.Breaker.Enabled)
}

func TestLoadConfigFrom_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
api:
  base_url: http://localhost:8080/3
  key: from-file
  timeout: 2s
breaker:
  min_requests: 3
ui:
  chart_window: 5
store:
  cache_dir: ""
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0600))
	t.Setenv("MOVIEFAN_API_KEY", "from-env")
	t.Setenv("MOVIEFAN_SYNC_REFRESH_TIMEOUT", "45s")

	cfg, err := LoadConfigFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/3", cfg.API.BaseURL)
	assert.Equal(t, "from-env", cfg.API.Key)
	assert.Equal(t, 2*time.Second, cfg.API.Timeout)
	assert.Equal(t, uint32(3), cfg.Breaker.MinRequests)
	assert.Equal(t, 5, cfg.UI.ChartWindow)
	assert.Equal(t, 45*time.Second, cfg.Sync.RefreshTimeout)
	assert.Empty(t, cfg.StorePath(), "empty cache dir is memory-only")
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFrom_BadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("api: [unterminated"), 0600))

	_, err := LoadConfigFrom(dir)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		c := DefaultConfig()
		c.API.Key = "k"
		return c
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing key", func(c *Config) { c.API.Key = "" }},
		{"missing base url", func(c *Config) { c.API.BaseURL = "" }},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }},
		{"zero chart window", func(c *Config) { c.UI.ChartWindow = 0 }},
		{"negative average window", func(c *Config) { c.UI.AverageWindow = -1 }},
		{"zero probe interval", func(c *Config) { c.Connectivity.Interval = 0 }},
		{"failure ratio above one", func(c *Config) { c.Breaker.FailureRatio = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConfig_StorePathScopedByBaseURL(t *testing.T) {
	c := DefaultConfig()
	c.Store.CacheDir = "/cache"

	a := c.StorePath()
	c.API.BaseURL = "https://API.themoviedb.org/3/"
	b := c.StorePath()
	c.API.BaseURL = "https://staging.example.com/3"
	other := c.StorePath()

	assert.Equal(t, a, b, "normalized URLs share a store")
	assert.NotEqual(t, a, other)
	assert.Equal(t, "moviefan.db", filepath.Base(a))
	assert.Len(t, filepath.Base(filepath.Dir(a)), 12)
}

func TestConfig_ClearCache(t *testing.T) {
	c := DefaultConfig()
	c.Store.CacheDir = filepath.Join(t.TempDir(), "cache")
	require.NoError(t, os.MkdirAll(c.Store.CacheDir, 0755))

	require.NoError(t, c.ClearCache())
	_, err := os.Stat(c.Store.CacheDir)
	assert.True(t, os.IsNotExist(err))
}
