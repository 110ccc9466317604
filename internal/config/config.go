package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TokenStorePostgres = "postgres"
	TokenStoreRedis    = "redis"
	TokenStoreMemory   = "memory"
)

type Config struct {
	AppName        string
	AppVersion     string
	AppDescription string

	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	RequestTimeout     time.Duration

	JWTSecret           string
	AccessTokenTTL      time.Duration
	RefreshTokenTTL     time.Duration
	RotateRefreshTokens bool

	DatabaseURL string
	DBMaxConns  int
	DBMinConns  int

	TokenStore         string
	RedisAddr          string
	RedisPassword      string
	TokenCleanInterval time.Duration

	UsersFile string

	CORSOrigins      []string
	RateLimitRPM     int
	AuthRateLimitRPM int

	AuditEnabled bool
	AuditFile    string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppName:        getEnv("APP_NAME", "auth-service"),
		AppVersion:     getEnv("APP_VERSION", "1.0.0"),
		AppDescription: getEnv("APP_DESCRIPTION", "Token issuance and refresh service"),

		ServerPort:         getEnv("SERVER_PORT", "8080"),
		ServerReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		ServerWriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),

		JWTSecret:           strings.TrimSpace(os.Getenv("JWT_SECRET")),
		AccessTokenTTL:      time.Duration(getInt("ACCESS_TOKEN_EXPIRE_MINUTES", 15)) * time.Minute,
		RefreshTokenTTL:     time.Duration(getInt("REFRESH_TOKEN_EXPIRE_DAYS", 7)) * 24 * time.Hour,
		RotateRefreshTokens: getBool("ROTATE_REFRESH_TOKENS", false),

		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:  getInt("DB_MAX_CONNS", 10),
		DBMinConns:  getInt("DB_MIN_CONNS", 2),

		TokenStore:         strings.ToLower(getEnv("TOKEN_STORE", "")),
		RedisAddr:          strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		TokenCleanInterval: getDuration("TOKEN_CLEAN_INTERVAL", time.Hour),

		UsersFile: getEnv("USERS_FILE", "./users.json"),

		CORSOrigins:      splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:     getInt("RATE_LIMIT_RPM", 100),
		AuthRateLimitRPM: getInt("AUTH_RATE_LIMIT_RPM", 10),

		AuditEnabled: getBool("AUDIT_ENABLED", true),
		AuditFile:    getEnv("AUDIT_FILE", "./audit.log"),
	}

	if cfg.TokenStore == "" {
		switch {
		case cfg.DatabaseURL != "":
			cfg.TokenStore = TokenStorePostgres
		case cfg.RedisAddr != "":
			cfg.TokenStore = TokenStoreRedis
		default:
			cfg.TokenStore = TokenStoreMemory
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}

	if c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("REFRESH_TOKEN_EXPIRE_DAYS must be positive")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.TokenCleanInterval <= 0 {
		return fmt.Errorf("TOKEN_CLEAN_INTERVAL must be positive")
	}

	switch c.TokenStore {
	case TokenStorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("TOKEN_STORE=postgres requires DATABASE_URL")
		}
	case TokenStoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("TOKEN_STORE=redis requires REDIS_ADDR")
		}
	case TokenStoreMemory:
	default:
		return fmt.Errorf("unknown TOKEN_STORE %q", c.TokenStore)
	}

	if c.DatabaseURL == "" && strings.TrimSpace(c.UsersFile) == "" {
		return fmt.Errorf("USERS_FILE is required without DATABASE_URL")
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
