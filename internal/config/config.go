package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Server
	ServerPort string

	// Environment: "development" または "production"
	AppEnv string

	// Database（空文字列の場合はインメモリストアで起動する）
	DatabaseURL string

	// CORS / Origin
	AllowedOrigins []string

	// Request
	MaxBodyBytes int64

	// Rate Limit（ウィンドウあたりの最大リクエスト数）
	RateLimitGeneral       int
	RateLimitAuth          int
	RateLimitProductCreate int

	// Rate Limit ウィンドウ幅
	RateLimitGeneralWindow       time.Duration
	RateLimitAuthWindow          time.Duration
	RateLimitProductCreateWindow time.Duration
}

// Load は環境変数からConfigを読み込む。
// すべての項目にデフォルト値があり、未設定でも起動できる。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.AppEnv = getEnvString("APP_ENV", "development")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.AllowedOrigins = splitOrigins(os.Getenv("ALLOWED_ORIGINS"))
	cfg.MaxBodyBytes = getEnvInt64("MAX_BODY_BYTES", 1048576)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 100)
	cfg.RateLimitAuth = getEnvInt("RATE_LIMIT_AUTH", 5)
	cfg.RateLimitProductCreate = getEnvInt("RATE_LIMIT_PRODUCT_CREATE", 10)
	cfg.RateLimitGeneralWindow = getEnvDuration("RATE_LIMIT_GENERAL_WINDOW", 60*time.Second)
	cfg.RateLimitAuthWindow = getEnvDuration("RATE_LIMIT_AUTH_WINDOW", 15*time.Minute)
	cfg.RateLimitProductCreateWindow = getEnvDuration("RATE_LIMIT_PRODUCT_CREATE_WINDOW", 60*time.Minute)

	return cfg, nil
}

// IsProduction は本番モードかどうかを返す。
// Cookieの Secure 属性とエラーレスポンスの詳細度の切り替えに使う。
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// UseInMemoryStores はインメモリストアで起動すべきかどうかを返す。
func (c *Config) UseInMemoryStores() bool {
	return c.DatabaseURL == ""
}

// splitOrigins はカンマ区切りのOriginリストを分割する。
// 空要素と前後の空白は取り除く。
func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
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

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
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
