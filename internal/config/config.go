package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// PostgreSQL connection. When DBHost is empty the service falls back to
	// a local SQLite file (SQLitePath), which keeps dev setups zero-config.
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Optional infrastructure. Empty values disable the feature.
	RedisURL  string // session store + bulk delivery queue
	AMQPURL   string // inbound message consumer
	AMQPQueue string

	// Outbound delivery endpoint for agent/bulk messages.
	GatewayURL   string
	GatewayToken string

	// Inbound webhook verification token.
	VerifyToken string

	PollInterval time.Duration
	SessionTTL   time.Duration

	// Template name used for off-hours automatic replies.
	AutoReplyTemplate string
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: Error loading .env file")
	}

	return &Config{
		Port:              getEnv("PORT", "8080"),
		DBHost:            getEnv("DB_HOST", ""),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBName:            getEnv("DB_NAME", "chatmanager"),
		DBSSLMode:         getEnv("DB_SSLMODE", "disable"),
		SQLitePath:        getEnv("SQLITE_PATH", "./chatmanager.db"),
		RedisURL:          getEnv("REDIS_URL", ""),
		AMQPURL:           getEnv("AMQP_URL", ""),
		AMQPQueue:         getEnv("AMQP_QUEUE", "chatmanager.inbound"),
		GatewayURL:        getEnv("GATEWAY_URL", ""),
		GatewayToken:      getEnv("GATEWAY_TOKEN", ""),
		VerifyToken:       getEnv("VERIFY_TOKEN", ""),
		PollInterval:      getDuration("POLL_INTERVAL_SECONDS", 15) * time.Second,
		SessionTTL:        getDuration("SESSION_TTL_MINUTES", 12*60) * time.Minute,
		AutoReplyTemplate: getEnv("AUTO_REPLY_TEMPLATE", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback int64) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
			return time.Duration(n)
		}
		log.Printf("Warning: invalid %s value %q, using default", key, value)
	}
	return time.Duration(fallback)
}
