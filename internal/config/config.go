// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  The database section supports two
// drivers: the default embedded sqlite file and an external MySQL
// server selected with DB_DRIVER=mysql.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	DBDriver  string // "sqlite" (default) or "mysql"
	DBPath    string // sqlite database file path
	DBUser    string // mysql username
	DBPass    string // mysql password (optional)
	DBHost    string // mysql host address
	DBPort    string // mysql port number
	DBName    string // mysql database name
	JWTSecret string // secret used to sign JWTs

	AccessTTLMin int // access token time-to-live in minutes
	BcryptCost   int // bcrypt cost for password hashing

	HoldTTLSec        int // seat hold lifetime in seconds
	ReaperIntervalSec int // how often the expiry reaper scans, in seconds
	ReaperBatch       int // max holds the reaper expires per scan
}

// Load reads configuration values from environment variables and
// returns a Config.  Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
// MySQL connection variables are only required when DB_DRIVER=mysql.
func Load() Config {
	cfg := Config{
		Env:       getenv("APP_ENV", "dev"),
		Port:      must("APP_PORT"),
		DBDriver:  getenv("DB_DRIVER", "sqlite"),
		DBPath:    getenv("DB_PATH", "railway.db"),
		JWTSecret: must("JWT_SECRET"),

		AccessTTLMin: getenvInt("ACCESS_TOKEN_TTL_MIN", 60),
		BcryptCost:   getenvInt("BCRYPT_COST", 10),

		HoldTTLSec:        getenvInt("HOLD_TTL_SEC", 120),
		ReaperIntervalSec: getenvInt("REAPER_INTERVAL_SEC", 5),
		ReaperBatch:       getenvInt("REAPER_BATCH", 100),
	}
	if cfg.DBDriver == "mysql" {
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// getenvInt is like getenv but converts the value to an integer.  An
// unparseable value is fatal rather than silently defaulted.
func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}
