package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port string

	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBMaxRetries int

	JWTSecret  string
	JWTTTL     time.Duration
	RefreshTTL time.Duration
	RedisURL   string

	MongoURI string
	MongoDB  string

	MidtransServerKey  string
	MidtransProduction bool

	GatewayTimeout         time.Duration
	GatewayMaxFailures     int
	GatewayBreakerCooldown time.Duration
	PaymentPollSchedule    string

	CloudinaryURL string

	LogLevel  string
	LogFormat string
}

// Load reads .env when present, then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("no .env file found, using environment")
	}

	return &Config{
		Port: getEnv("PORT", "8080"),

		DBHost:       getEnv("DB_HOST", "postgres"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBUser:       getEnv("DB_USER", "program"),
		DBPassword:   getEnv("DB_PASSWORD", "test"),
		DBName:       getEnv("DB_NAME", "hotel"),
		DBMaxRetries: getInt("DB_MAX_RETRIES", 10),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		JWTTTL:     getDuration("JWT_TTL", 24*time.Hour),
		RefreshTTL: getDuration("REFRESH_TTL", 7*24*time.Hour),
		RedisURL:   getEnv("REDIS_URL", ""),

		MongoURI: getEnv("MONGO_URI", ""),
		MongoDB:  getEnv("MONGO_DB", "hotel"),

		MidtransServerKey:  getEnv("MIDTRANS_SERVER_KEY", ""),
		MidtransProduction: getBool("MIDTRANS_PRODUCTION", false),

		GatewayTimeout:         getDuration("GATEWAY_TIMEOUT", 10*time.Second),
		GatewayMaxFailures:     getInt("GATEWAY_MAX_FAILURES", 5),
		GatewayBreakerCooldown: getDuration("GATEWAY_BREAKER_COOLDOWN", 30*time.Second),
		PaymentPollSchedule:    getEnv("PAYMENT_POLL_SCHEDULE", "@every 1m"),

		CloudinaryURL: getEnv("CLOUDINARY_URL", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Validate reports settings the process cannot start without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.MidtransServerKey == "" {
		return fmt.Errorf("MIDTRANS_SERVER_KEY is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}
