// Package config provides configuration management for the application.
// Everything is read from the environment; an optional .env file is
// loaded first for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"chathub/internal/store"
)

// Config holds the application configuration
type Config struct {
	Server   ServerConfig
	OpenAI   ProviderCredentials
	Together ProviderCredentials
	Storage  store.Config
	Metrics  MetricsConfig

	// ModelsFile is an optional path to a YAML model catalog that
	// extends the built-in one.
	ModelsFile string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
}

// ProviderCredentials holds a provider's API key. An empty key disables
// the provider without failing startup.
type ProviderCredentials struct {
	APIKey string
}

// MetricsConfig holds Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded when present.
func Load() (*Config, error) {
	// Ignore the error: a missing .env file just means env-only config
	_ = godotenv.Load()

	storageCfg := store.DefaultConfig()
	if t := os.Getenv("STORAGE_TYPE"); t != "" {
		storageCfg.Type = t
	}
	if p := os.Getenv("SQLITE_PATH"); p != "" {
		storageCfg.SQLite.Path = p
	}
	storageCfg.PostgreSQL.URL = os.Getenv("DATABASE_URL")
	if s := os.Getenv("DATABASE_MAX_CONNS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			storageCfg.PostgreSQL.MaxConns = n
		}
	}
	storageCfg.MongoDB.URL = os.Getenv("MONGODB_URL")
	if db := os.Getenv("MONGODB_DATABASE"); db != "" {
		storageCfg.MongoDB.Database = db
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		OpenAI: ProviderCredentials{
			APIKey: os.Getenv("OPENAI_API_KEY"),
		},
		Together: ProviderCredentials{
			APIKey: os.Getenv("TOGETHER_API_KEY"),
		},
		Storage: storageCfg,
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", false),
		},
		ModelsFile: os.Getenv("MODELS_FILE"),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
