package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// RedisConfig holds settings for the Redis instance backing usage dedupe.
type RedisConfig struct {
	URL string
	// DedupeRetention bounds how long an invocation id is remembered.
	// Duplicate deliveries inside the window are absorbed; beyond it the
	// at-least-once source is trusted not to replay.
	DedupeRetention time.Duration
	// RateLimitPerHour caps requests per tenant per hour. Zero disables
	// the limiter.
	RateLimitPerHour int
}

// AuthConfig holds identity verification settings. The service trusts the
// claims once the signature checks out; it issues no tokens itself.
type AuthConfig struct {
	JWTSecret string
}

// SearchConfig describes the fixed set of index domains. Domains maps a
// domain name to its backend location: a cluster base URL for the
// "opensearch" backend, a filesystem path for the embedded "bleve" backend.
type SearchConfig struct {
	Backend string
	Domains map[string]string
	// TenantDomains assigns each tenant to exactly one domain. Loaded once
	// at startup; never mutated afterwards.
	TenantDomains map[string]string
	// Username/Password authenticate against the cluster for the
	// "opensearch" backend; unused by the embedded backend.
	Username string
	Password string
}

// GenerationConfig holds settings for the completion service client.
type GenerationConfig struct {
	Endpoint    string
	APIKey      string
	ModelID     string
	CallTimeout time.Duration
	MaxRetries  int
}

// SyncConfig tunes the asynchronous indexing machinery.
type SyncConfig struct {
	Workers         int
	JobTimeout      time.Duration
	MaxSyncRetries  int
	ReconcileEvery  time.Duration
	PresignedExpiry time.Duration
	NotificationsOn bool
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not
// hardcoded.
type AppConfig struct {
	AppHost    string
	Port       string
	Database   DatabaseConfig
	MinIO      MinIOConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Search     SearchConfig
	Generation GenerationConfig
	Sync       SyncConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Redis: RedisConfig{
			URL:              getEnv("REDIS_URL", "redis://localhost:6379/0"),
			DedupeRetention:  getEnvDuration("USAGE_DEDUPE_RETENTION", 48*time.Hour),
			RateLimitPerHour: getEnvInt("RATE_LIMIT_PER_HOUR", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Search: SearchConfig{
			Backend: getEnv("SEARCH_BACKEND", "bleve"),
			Domains: getEnvMap("SEARCH_DOMAINS", map[string]string{
				"domain-a": "data/index/domain-a",
				"domain-b": "data/index/domain-b",
			}),
			TenantDomains: getEnvMap("TENANT_DOMAINS", map[string]string{
				"tenant-a": "domain-a",
				"tenant-b": "domain-b",
			}),
			Username: getEnv("SEARCH_USERNAME", ""),
			Password: getEnv("SEARCH_PASSWORD", ""),
		},
		Generation: GenerationConfig{
			Endpoint:    getEnv("GENERATION_ENDPOINT", ""),
			APIKey:      getEnv("GENERATION_API_KEY", ""),
			ModelID:     getEnv("GENERATION_MODEL_ID", "anthropic.claude-3-5-sonnet-20241022-v2:0"),
			CallTimeout: getEnvDuration("GENERATION_CALL_TIMEOUT", 30*time.Second),
			MaxRetries:  getEnvInt("GENERATION_MAX_RETRIES", 3),
		},
		Sync: SyncConfig{
			Workers:         getEnvInt("SYNC_WORKERS", 4),
			JobTimeout:      getEnvDuration("SYNC_JOB_TIMEOUT", 2*time.Minute),
			MaxSyncRetries:  getEnvInt("SYNC_MAX_RETRIES", 3),
			ReconcileEvery:  getEnvDuration("DELETE_RECONCILE_INTERVAL", 30*time.Second),
			PresignedExpiry: getEnvDuration("UPLOAD_URL_EXPIRY", 5*time.Minute),
			NotificationsOn: getEnvBool("STORAGE_NOTIFICATIONS", true),
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

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

// getEnvMap parses "name=value,name=value" pairs. Malformed entries are
// skipped rather than failing startup.
func getEnvMap(key string, def map[string]string) map[string]string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(v, ",") {
		name, val, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" || val == "" {
			continue
		}
		out[name] = val
	}
	if len(out) == 0 {
		return def
	}
	return out
}
