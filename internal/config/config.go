package config

import (
	"os"
	"strconv"
)

// Store backends selectable with STORE.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

type Config struct {
	Port        int
	LogLevel    string
	LogFormat   string
	Store       string
	DatabaseURL string
	SQLitePath  string
	TuningFile  string
}

func Load() *Config {
	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		Store:       getEnv("STORE", ""),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "data/safezone.db"),
		TuningFile:  getEnv("TUNING_FILE", ""),
	}
	if cfg.Store == "" {
		cfg.Store = StoreMemory
		if cfg.DatabaseURL != "" {
			cfg.Store = StorePostgres
		}
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
