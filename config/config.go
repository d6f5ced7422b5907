package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kataras/golog"
)

type Config struct {
	Port         string
	DBDriver     string
	DatabaseURL  string
	RedisURL     string
	RoomCacheTTL time.Duration
	AMQPURL      string
	AMQPExchange string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	ExcessGuestFee float64
	Location       *time.Location
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		if err := godotenv.Load(); err != nil {
			golog.Debug("no .env file loaded")
		}
	}

	cfg := &Config{
		Port:                getEnvOrDefault("PORT", "8080"),
		DBDriver:            getEnvOrDefault("DB_DRIVER", "postgres"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		AMQPURL:             os.Getenv("AMQP_URL"),
		AMQPExchange:        getEnvOrDefault("AMQP_EXCHANGE", "bhive.reservations"),
		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryFolder:    os.Getenv("CLOUDINARY_FOLDER"),
	}

	ttl, err := time.ParseDuration(getEnvOrDefault("ROOM_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("ROOM_CACHE_TTL: %w", err)
	}
	cfg.RoomCacheTTL = ttl

	fee, err := strconv.ParseFloat(getEnvOrDefault("EXCESS_GUEST_FEE", "100"), 64)
	if err != nil || fee <= 0 {
		return nil, fmt.Errorf("EXCESS_GUEST_FEE must be a positive number")
	}
	cfg.ExcessGuestFee = fee

	loc, err := time.LoadLocation(getEnvOrDefault("HOTEL_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("HOTEL_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if cfg.DBDriver != "memory" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}
