package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp 切換到空目錄，避免讀到工作目錄下的 config.yaml
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "openrouter", cfg.Generator.Provider)
	assert.Equal(t, "database", cfg.Store.Backend)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, cfg.Generation.Coalesce)
	assert.Equal(t, 2, cfg.Queue.Workers)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, time.Second, cfg.DedupWindow)
	assert.Equal(t, int64(2<<20), cfg.BodyLimit)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GENERATOR_API_KEY", "sk-test")
	t.Setenv("GENERATOR_PROVIDER", "OpenAI")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("MEALIE_BASE_URL", "http://mealie:9000")
	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("APP_GENERATION_COALESCE", "false")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Generator.APIKey)
	assert.Equal(t, "openai", cfg.Generator.Provider)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, "http://mealie:9000", cfg.RecipeSource.BaseURL)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Generation.Coalesce)
}

func TestLoadFromFile(t *testing.T) {
	dir := chdirTemp(t)
	content := []byte(`
database:
  driver: postgres
  host: db
  name: linker
cache:
  enabled: false
rate_limit:
  requests: 5
  window: 10s
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 5, cfg.RateLimit.Requests)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.Window)
}

func TestValidateConfig(t *testing.T) {
	chdirTemp(t)
	base, err := load(viper.New())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown provider", func(c *Config) { c.Generator.Provider = "bedrock" }},
		{"unknown backend", func(c *Config) { c.Store.Backend = "memcached" }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"empty sqlite path", func(c *Config) { c.Database.Path = " " }},
		{"postgres without host", func(c *Config) { c.Database.Driver = "postgres" }},
		{"redis without addr", func(c *Config) { c.Store.Backend = "redis"; c.Redis.Addr = "" }},
		{"invalid cache size", func(c *Config) { c.Cache.MaxSize = 0 }},
		{"invalid rate limit", func(c *Config) { c.RateLimit.Requests = 0 }},
		{"invalid queue", func(c *Config) { c.Queue.Workers = 0 }},
		{"invalid body limit", func(c *Config) { c.BodyLimit = 0 }},
		{"missing port", func(c *Config) { c.Server.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			assert.Error(t, validateConfig(&cfg))
		})
	}

	assert.NoError(t, validateConfig(base))
}
