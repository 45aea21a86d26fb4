package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// DBPath is the sqlite database file, created on first run.
	DBPath string

	// SessionSecret signs the persisted login token. This is a
	// UI-access gate for a single offline terminal, not a trust
	// boundary.
	SessionSecret   string
	SessionTTLHours int

	SeedAdminPassword   string
	SeedCashierPassword string
}

func Load() Config {
	// A .env next to the binary is optional.
	_ = godotenv.Load()

	ttl, err := strconv.Atoi(getEnv("POS_SESSION_TTL_HOURS", "12"))
	if err != nil || ttl < 1 {
		ttl = 12
	}

	return Config{
		DBPath:              dbPath(),
		SessionSecret:       getEnv("POS_SESSION_SECRET", "restopos-dev-session-secret"),
		SessionTTLHours:     ttl,
		SeedAdminPassword:   getEnv("SEED_ADMIN_PASSWORD", "admin123"),
		SeedCashierPassword: getEnv("SEED_CASHIER_PASSWORD", "cashier123"),
	}
}

// dbPath resolves the database file: POS_DB_PATH wins outright;
// POS_DATA_DIR places the default file name inside a directory.
func dbPath() string {
	if path := os.Getenv("POS_DB_PATH"); path != "" {
		return path
	}
	if dir := os.Getenv("POS_DATA_DIR"); dir != "" {
		return filepath.Join(dir, "restopos.db")
	}
	return "restopos.db"
}

// SessionTTL is the configured login lifetime as a duration.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
