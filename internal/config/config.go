package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// MemoryDatabaseURL はPostgreSQLの代わりにインメモリストアを使用する指定。
const MemoryDatabaseURL = "memory://"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Session token
	JWTSecret string

	// Google
	GoogleUserInfoURL string
	GoogleTimeout     time.Duration

	// Password
	BcryptCost int

	// Rate Limit（req/min）
	RateLimitGeneral int
	RateLimitAuth    int

	// Trash
	TrashRetentionDays int

	// Logging
	LogLevel string

	// Server
	Host       string
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Addr はHTTPサーバーの待ち受けアドレスを返す。
func (c *Config) Addr() string {
	return c.Host + ":" + c.ServerPort
}

// UsesMemoryStore はインメモリストアを使用する設定かを返す。
func (c *Config) UsesMemoryStore() bool {
	return c.DatabaseURL == MemoryDatabaseURL
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.Host = getEnvString("HOST", "0.0.0.0")
	cfg.ServerPort = getEnvString("SERVER_PORT", "3333")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "*")
	cfg.GoogleUserInfoURL = getEnvString("GOOGLE_USERINFO_URL", "https://www.googleapis.com/oauth2/v2/userinfo")
	cfg.GoogleTimeout = getEnvDuration("GOOGLE_TIMEOUT", 10*time.Second)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitAuth = getEnvInt("RATE_LIMIT_AUTH", 20)
	cfg.TrashRetentionDays = getEnvInt("TRASH_RETENTION_DAYS", 30)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate は値の範囲を検証する。
func (c *Config) validate() error {
	if c.RateLimitGeneral <= 0 {
		return fmt.Errorf("RATE_LIMIT_GENERAL must be positive: %d", c.RateLimitGeneral)
	}
	if c.RateLimitAuth <= 0 {
		return fmt.Errorf("RATE_LIMIT_AUTH must be positive: %d", c.RateLimitAuth)
	}
	if c.TrashRetentionDays < 0 {
		return fmt.Errorf("TRASH_RETENTION_DAYS must not be negative: %d", c.TrashRetentionDays)
	}
	if c.GoogleTimeout <= 0 {
		return fmt.Errorf("GOOGLE_TIMEOUT must be positive: %s", c.GoogleTimeout)
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
