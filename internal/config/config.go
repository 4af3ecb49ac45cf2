package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServerAddr string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr string

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	LoginRateLimit    int
	LoginRateWindow   time.Duration
	RateLimitFailOpen bool

	RefreshCookieEnabled bool
	RefreshCookieDomain  string
	RefreshCookieSecure  bool

	CORSAllowOrigins []string
	LogLevel         string
}

func Load() *Config {
	accessMin, _ := strconv.Atoi(getEnvOrDefault("ACCESS_TTL_MIN", "15"))
	if accessMin <= 0 {
		accessMin = 15
	}

	refreshDays, _ := strconv.Atoi(getEnvOrDefault("REFRESH_TTL_DAYS", "7"))
	if refreshDays <= 0 {
		refreshDays = 7
	}

	rateLimit, _ := strconv.Atoi(getEnvOrDefault("LOGIN_RATE_LIMIT", "5"))
	if rateLimit <= 0 {
		rateLimit = 5
	}

	rateWindow, _ := strconv.Atoi(getEnvOrDefault("LOGIN_RATE_WINDOW_SEC", "300"))
	if rateWindow <= 0 {
		rateWindow = 300
	}

	failOpen, _ := strconv.ParseBool(getEnvOrDefault("RATE_LIMIT_FAIL_OPEN", "false"))
	cookieEnabled, _ := strconv.ParseBool(getEnvOrDefault("REFRESH_COOKIE_ENABLED", "false"))
	cookieSecure, _ := strconv.ParseBool(getEnvOrDefault("REFRESH_COOKIE_SECURE", "true"))

	return &Config{
		ServerAddr: getEnvOrDefault("SERVER_ADDR", ":8080"),
		DBHost:     getEnvOrDefault("DB_HOST", "localhost"),
		DBPort:     getEnvOrDefault("DB_PORT", "5432"),
		DBUser:     getEnvOrDefault("DB_USER", "elice"),
		DBPassword: getEnvOrDefault("DB_PASSWORD", "elice_dev_password"),
		DBName:     getEnvOrDefault("DB_NAME", "elice"),

		RedisAddr: getEnvOrDefault("REDIS_ADDR", "localhost:6379"),

		JWTSecret:  getEnvOrDefault("JWT_SECRET", generateDefaultSecret()),
		AccessTTL:  time.Duration(accessMin) * time.Minute,
		RefreshTTL: time.Duration(refreshDays) * 24 * time.Hour,

		LoginRateLimit:    rateLimit,
		LoginRateWindow:   time.Duration(rateWindow) * time.Second,
		RateLimitFailOpen: failOpen,

		RefreshCookieEnabled: cookieEnabled,
		RefreshCookieDomain:  getEnvOrDefault("REFRESH_COOKIE_DOMAIN", ""),
		RefreshCookieSecure:  cookieSecure,

		CORSAllowOrigins: splitAndTrim(getEnvOrDefault("CORS_ALLOW_ORIGIN", "*")),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func generateDefaultSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "dev-secret-change-in-production"
	}
	return hex.EncodeToString(bytes)
}
