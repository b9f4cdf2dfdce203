package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Redis
	RedisURL string

	// Rendezvous server
	Port        string
	FrontendURL string

	// SSH console
	SSHEnabled bool
	SSHHost    string
	SSHPort    string
	SSHHostKey string

	// Board client
	BoardFile        string
	BoardPort        string
	RendezvousURL    string
	TickMillis       int
	ReconnectSeconds int
	SendBuffer       int
	PublicURL        string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Redis (empty disables the event bus)
		RedisURL: getEnv("REDIS_URL", ""),

		// Rendezvous server
		Port:        getEnv("APP_PORT", "10987"),
		FrontendURL: getEnv("FRONTEND_URL", ""),

		// SSH console
		SSHEnabled: getEnvBool("SSH_ENABLED", false),
		SSHHost:    getEnv("SSH_HOST", "::"),
		SSHPort:    getEnv("SSH_PORT", "2222"),
		SSHHostKey: getEnv("SSH_HOST_KEY", ".ssh/pingball_host_key"),

		// Board client
		BoardFile:        getEnv("BOARD_FILE", "boards/default.yaml"),
		BoardPort:        getEnv("BOARD_PORT", "8081"),
		RendezvousURL:    getEnv("RENDEZVOUS_URL", ""),
		TickMillis:       getEnvInt("TICK_MILLIS", 50),
		ReconnectSeconds: getEnvInt("RECONNECT_SECONDS", 5),
		SendBuffer:       getEnvInt("SEND_BUFFER", 256),
		PublicURL:        getEnv("PUBLIC_URL", "http://localhost:8081"),
	}
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) Tick() time.Duration {
	return time.Duration(c.TickMillis) * time.Millisecond
}

func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectSeconds) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
