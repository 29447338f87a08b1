package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/hitoshi/sharehub/internal/querycache"
	"github.com/hitoshi/sharehub/internal/storage"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// API
	APIURL       string
	BackendURL   string
	ProxyEnabled bool

	// Server
	ServerPort string

	// Storage
	StorageDriver string
	StorageDir    string
	RedisURL      string
	RedisPrefix   string

	// Workspace
	CacheStaleTime   time.Duration
	WorkspaceIdleTTL time.Duration

	// Rate Limit
	RateLimitGeneral int

	// CORS
	CORSAllowedOrigin string

	// Cookie
	CookieSecure bool

	// Logging
	LogLevel string
}

// LoadDotEnv はカレントディレクトリの.envを環境変数に読み込む。
// ファイルがなければ何もしない。既に設定済みの環境変数は上書きしない。
func LoadDotEnv(filenames ...string) error {
	err := godotenv.Load(filenames...)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load .env: %w", err)
}

// Load は環境変数からConfigを読み込む。
// 値が不正な場合や、redisドライバでREDIS_URLが未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.APIURL = strings.TrimRight(getEnvString("API_URL", "/api"), "/")
	cfg.BackendURL = strings.TrimRight(getEnvString("BACKEND_URL", "http://localhost:8081/api"), "/")
	cfg.ProxyEnabled = getEnvBool("PROXY_ENABLED", true)
	cfg.ServerPort = getEnvString("SERVER_PORT", "3000")
	cfg.StorageDriver = getEnvString("STORAGE_DRIVER", storage.DriverFile)
	cfg.StorageDir = getEnvString("STORAGE_DIR", "data/workspaces")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.RedisPrefix = getEnvString("REDIS_PREFIX", "sharehub")
	cfg.CacheStaleTime = getEnvDuration("CACHE_STALE_TIME", querycache.DefaultStaleTime)
	cfg.WorkspaceIdleTTL = getEnvDuration("WORKSPACE_IDLE_TTL", 30*time.Minute)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 300)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.CookieSecure = getEnvBool("COOKIE_SECURE", false)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if err := storage.ValidateDriver(c.StorageDriver); err != nil {
		return err
	}
	if c.StorageDriver == storage.DriverRedis && c.RedisURL == "" {
		return fmt.Errorf("required environment variables are not set: [REDIS_URL]")
	}
	if c.APIURL == "" {
		return fmt.Errorf("API_URL must not be empty")
	}
	if !strings.HasPrefix(c.APIURL, "/") {
		if u, err := url.Parse(c.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("API_URL must be an absolute URL or a path: %s", c.APIURL)
		}
	}
	if c.ProxyEnabled {
		u, err := url.Parse(c.BackendURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("BACKEND_URL must be an absolute URL: %s", c.BackendURL)
		}
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
