package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"myshop/backend/internal/logger"
)

type Config struct {
	Env                   string
	Port                  string
	AllowedOrigin         string
	DatabaseURL           string
	SQLitePath            string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	AuthSecret            string
	AccessTokenTTLMinutes int
	OTPTTLSeconds         int
	LoginAttemptsPerMin   int
	ShopTimezone          string
	PageSize              int
	SeedDemoData          bool
	LogLevel              string
	LogFormat             string
	LogOutput             string
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg := Config{
		Env:                   strings.ToLower(getEnv("APP_ENV", "development")),
		Port:                  getEnv("PORT", "8000"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://localhost:5173"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		SQLitePath:            os.Getenv("SQLITE_PATH"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: getPositiveInt("ACCESS_TOKEN_TTL_MINUTES", 720),
		OTPTTLSeconds:         getPositiveInt("OTP_TTL_SECONDS", 300),
		LoginAttemptsPerMin:   getPositiveInt("LOGIN_ATTEMPTS_PER_MINUTE", 5),
		ShopTimezone:          getEnv("SHOP_TIMEZONE", "Asia/Kolkata"),
		PageSize:              getPositiveInt("PAGE_SIZE", 100),
		SeedDemoData:          getBool("SEED_DEMO_DATA", true),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogOutput:             getEnv("LOG_OUTPUT", "stdout"),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Location resolves ShopTimezone, falling back to UTC for unknown zones.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ShopTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) LoggerConfig() logger.LogConfig {
	lc := logger.DefaultConfig()
	lc.Level = c.LogLevel
	lc.Format = c.LogFormat
	lc.Output = c.LogOutput
	return lc
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getPositiveInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return b
}
