package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	Generator    GeneratorConfig    `mapstructure:"generator"`
	Generation   GenerationConfig   `mapstructure:"generation"`
	Queue        QueueConfig        `mapstructure:"queue"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Store        StoreConfig        `mapstructure:"store"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Cache        CacheConfig        `mapstructure:"cache"`
	RecipeSource RecipeSourceConfig `mapstructure:"recipe_source"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	DedupWindow  time.Duration      `mapstructure:"dedup_window"`
	BodyLimit    int64              `mapstructure:"body_limit"`
	LogLevel     string             `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// GeneratorConfig 關聯生成服務（LLM）配置
type GeneratorConfig struct {
	Provider    string        `mapstructure:"provider"` // openrouter | openai
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// GenerationConfig 關聯生成流程設定
type GenerationConfig struct {
	// Coalesce 為 true 時，同一食譜同時間只會有一個生成請求進行
	Coalesce bool `mapstructure:"coalesce"`
}

// QueueConfig 生成隊列設定
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// DatabaseConfig 關聯式資料庫設定
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // sqlite | postgres
	Path     string `mapstructure:"path"`   // sqlite 檔案路徑
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// StoreConfig 關聯儲存後端
type StoreConfig struct {
	Backend string `mapstructure:"backend"` // database | redis
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// CacheConfig 記憶體熱快取設定
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	MaxSize int           `mapstructure:"max_size"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// RecipeSourceConfig 食譜來源 API 設定
type RecipeSourceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
	PerPage int           `mapstructure:"per_page"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定（.env 可有可無）
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment only")
	}
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定常用環境變量
	_ = v.BindEnv("generator.provider", "GENERATOR_PROVIDER")
	_ = v.BindEnv("generator.api_key", "GENERATOR_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY")
	_ = v.BindEnv("generator.model", "GENERATOR_MODEL")
	_ = v.BindEnv("generator.base_url", "GENERATOR_BASE_URL")
	_ = v.BindEnv("database.driver", "DATABASE_DRIVER")
	_ = v.BindEnv("database.path", "DATABASE_PATH")
	_ = v.BindEnv("database.password", "DATABASE_PASSWORD")
	_ = v.BindEnv("store.backend", "STORE_BACKEND")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("cache.enabled", "CACHE_ENABLED")
	_ = v.BindEnv("recipe_source.base_url", "MEALIE_BASE_URL")
	_ = v.BindEnv("recipe_source.api_key", "MEALIE_API_KEY")
	_ = v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	_ = v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	_ = v.BindEnv("dedup_window", "DEDUP_WINDOW")
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Generator.Provider = strings.ToLower(strings.TrimSpace(cfg.Generator.Provider))
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-linker")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "110s")

	v.SetDefault("generator.provider", "openrouter")
	v.SetDefault("generator.model", "openai/gpt-4o-mini")
	v.SetDefault("generator.max_tokens", 4096)
	v.SetDefault("generator.temperature", 0.2)
	v.SetDefault("generator.timeout", "90s")

	v.SetDefault("generation.coalesce", true)

	v.SetDefault("queue.workers", 2)
	v.SetDefault("queue.max_size", 50)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/recipes.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "recipe_linker")
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("store.backend", "database")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "recipe-linker")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "24h")

	v.SetDefault("recipe_source.timeout", "15s")
	v.SetDefault("recipe_source.per_page", 100)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 30)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("body_limit", 2<<20) // 2MB
	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(cfg *Config) error {
	if cfg.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	switch cfg.Generator.Provider {
	case "openrouter", "openai":
	default:
		return fmt.Errorf("unsupported generator provider: %q", cfg.Generator.Provider)
	}

	switch cfg.Store.Backend {
	case "database":
		switch cfg.Database.Driver {
		case "sqlite":
			if strings.TrimSpace(cfg.Database.Path) == "" {
				return fmt.Errorf("database path is required for sqlite")
			}
		case "postgres":
			if cfg.Database.Host == "" || cfg.Database.Name == "" {
				return fmt.Errorf("database host and name are required for postgres")
			}
		default:
			return fmt.Errorf("unsupported database driver: %q", cfg.Database.Driver)
		}
	case "redis":
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required for redis store")
		}
	default:
		return fmt.Errorf("unsupported store backend: %q", cfg.Store.Backend)
	}

	if cfg.Queue.Workers <= 0 || cfg.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue settings")
	}

	if cfg.Cache.Enabled {
		if cfg.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if cfg.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	if cfg.RateLimit.Enabled && (cfg.RateLimit.Requests <= 0 || cfg.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit settings")
	}

	if cfg.BodyLimit <= 0 {
		return fmt.Errorf("invalid body limit")
	}

	return nil
}
