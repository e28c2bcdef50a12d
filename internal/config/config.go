package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	BackendURL string
	Port       int
	LogLevel   string
	NatsURL    string
	NatsToken  string
	CSRFToken  string
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present; real env vars win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		BackendURL: envStr("PARLEY_BACKEND_URL", "http://localhost:8000"),
		Port:       envInt("PARLEY_PORT", 0),
		LogLevel:   envStr("LOG_LEVEL", "info"),
		NatsURL:    envStr("NATS_URL", ""),
		NatsToken:  envStr("NATS_TOKEN", ""),
		CSRFToken:  envStr("PARLEY_CSRF_TOKEN", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
