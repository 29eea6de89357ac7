package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type config struct {
	Port           string
	StorageBackend string
	DataDir        string

	RedisURL string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RPCURL          string
	ContractAddress string
	WatchAddress    string
	WatchGoalID     string

	PollInterval     time.Duration
	ReminderInterval time.Duration

	CORSOrigins []string
}

// loadConfig reads configuration from the environment with defaults,
// loading .env first when present
func loadConfig() config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return config{
		Port:           getEnvOrDefault("PORT", "8080"),
		StorageBackend: getEnvOrDefault("STORAGE_BACKEND", "file"),
		DataDir:        getEnvOrDefault("DATA_DIR", "data"),

		RedisURL: os.Getenv("REDIS_URL"),

		DBHost:     getEnvOrDefault("DB_HOST", "localhost"),
		DBPort:     getEnvOrDefault("DB_PORT", "5432"),
		DBUser:     getEnvOrDefault("DB_USER", "postgres"),
		DBPassword: getEnvOrDefault("DB_PASSWORD", "password"),
		DBName:     getEnvOrDefault("DB_NAME", "bazuusave"),

		RPCURL:          os.Getenv("RPC_URL"),
		ContractAddress: os.Getenv("CONTRACT_ADDRESS"),
		WatchAddress:    os.Getenv("WATCH_ADDRESS"),
		WatchGoalID:     os.Getenv("WATCH_GOAL_ID"),

		PollInterval:     getEnvSeconds("POLL_INTERVAL_SECONDS", defaultPollInterval),
		ReminderInterval: getEnvSeconds("REMINDER_INTERVAL_SECONDS", time.Hour),

		CORSOrigins: strings.Split(getEnvOrDefault("CORS_ORIGINS", "http://localhost:3000"), ","),
	}
}

// connString builds the Postgres connection string
func (c config) connString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvSeconds reads a duration configured as whole seconds
func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		log.Printf("Invalid %s value %q, using default", key, value)
		return defaultValue
	}
	return time.Duration(seconds) * time.Second
}
