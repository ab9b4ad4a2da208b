package config

import (
	"os"
	"strconv"
)

// CacheConfig holds settings for the local persisted cache (SQLite).
type CacheConfig struct {
	Path               string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// BackendConfig holds the external endpoint URLs the gateway consumes.
// The endpoints themselves (object listing, presigned upload, chat) are
// external collaborators; nothing here is hardcoded elsewhere.
type BackendConfig struct {
	ListURL        string
	PresignURL     string
	ChatURL        string
	HTTPTimeoutSec int
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTTTLHours int
}

// MinIOConfig holds object storage settings for the local stub backend.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AppConfig is the centralized configuration struct for the gateway.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost string
	Port    string
	Cache   CacheConfig
	Backend BackendConfig
	Auth    AuthConfig
	MinIO   MinIOConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Cache: CacheConfig{
			Path:               getEnv("CACHE_PATH", "chatgw.db"),
			MaxOpenConns:       getEnvInt("CACHE_MAX_OPEN_CONNS", 1),
			MaxIdleConns:       getEnvInt("CACHE_MAX_IDLE_CONNS", 1),
			ConnMaxLifetimeSec: getEnvInt("CACHE_CONN_MAX_LIFETIME_SEC", 300),
		},
		Backend: BackendConfig{
			ListURL:        getEnv("LIST_URL", ""),
			PresignURL:     getEnv("PRESIGN_URL", ""),
			ChatURL:        getEnv("CHAT_URL", ""),
			HTTPTimeoutSec: getEnvInt("BACKEND_TIMEOUT_SEC", 60),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", ""),
			JWTIssuer:   getEnv("JWT_ISSUER", "chatgw"),
			JWTTTLHours: getEnvInt("JWT_TTL_HOURS", 24),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
