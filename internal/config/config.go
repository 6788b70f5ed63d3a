package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort string

	DBDriver   string // pgx, postgres or sqlite3
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	SQLitePath string

	AWSRegion        string
	SQSEventQueueURL string

	JWTSecret                 string
	JWTExpirationHours        time.Duration
	JWTRefreshExpirationHours time.Duration

	AdminUsername string
	AdminPassword string

	LogLevel  string
	LogFormat string // json or text

	OTelServiceName  string
	OTelOTLPEndpoint string // tracing is disabled when empty

	TokenPurgeSchedule   string
	AllocationMaxRetries int
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		logrus.Warnf("could not load .env file: %v", err)
	}

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	jwtExpHours, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "1"))
	jwtRefreshExpHours, _ := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168"))
	maxRetries, err := strconv.Atoi(getEnv("ALLOCATION_MAX_RETRIES", "5"))
	if err != nil || maxRetries < 1 {
		maxRetries = 5
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DBDriver:   getEnv("DB_DRIVER", "pgx"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "parking"),
		DBPassword: getEnv("DB_PASSWORD", "parking"),
		DBName:     getEnv("DB_NAME", "parking_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "parking.db"),

		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		SQSEventQueueURL: getEnv("SQS_EVENT_QUEUE_URL", ""),

		JWTSecret:                 getEnv("JWT_SECRET", "change-me-in-production"),
		JWTExpirationHours:        time.Duration(jwtExpHours) * time.Hour,
		JWTRefreshExpirationHours: time.Duration(jwtRefreshExpHours) * time.Hour,

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		OTelServiceName:  getEnv("OTEL_SERVICE_NAME", "vehicle-parking"),
		OTelOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		TokenPurgeSchedule:   getEnv("TOKEN_PURGE_SCHEDULE", "@every 10m"),
		AllocationMaxRetries: maxRetries,
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	logrus.Debugf("environment variable %q not set, using default %q", key, fallback)
	return fallback
}
