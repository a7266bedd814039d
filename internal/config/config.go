package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Dentago API
	APIBaseURL     string
	ImagesBaseURL  string
	RequestTimeout time.Duration

	// Token storage. The BFF forwards the caller's own bearer token. The
	// stored and static tokens are used for token-less requests only when
	// AllowStoredToken is set, which is meant for local runs.
	AllowStoredToken  bool
	StaticAccessToken string
	TokenKey          string
	TokenFallbackKeys []string
	RedisAddr         string
	RedisPassword     string
	RedisTLS          bool

	// HTTP surface
	CORSAllowedOrigins []string
	RateLimitPerMinute int
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		APIBaseURL:     getEnv("DENTAGO_API_BASE_URL", "https://app.dentago.uz/api"),
		ImagesBaseURL:  getEnv("DENTAGO_IMAGES_BASE_URL", "https://app.dentago.uz/images"),
		RequestTimeout: getEnvAsDuration("DENTAGO_REQUEST_TIMEOUT", 15*time.Second),

		AllowStoredToken:  getEnvAsBool("DENTAGO_ALLOW_STORED_TOKEN", false),
		StaticAccessToken: getEnv("DENTAGO_ACCESS_TOKEN", ""),
		TokenKey:          getEnv("TOKEN_STORE_KEY", "dentago_access_token"),
		TokenFallbackKeys: getEnvAsList("TOKEN_STORE_FALLBACK_KEYS", []string{"accessToken"}),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisTLS:          getEnvAsBool("REDIS_TLS", false),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
