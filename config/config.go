/*
Package config loads server settings from the environment.

SOURCES (later wins):
  1. Defaults below
  2. .env in the working directory (optional, via godotenv)
  3. Process environment
  4. Command-line flags (applied by cmd/server)

VARIABLES:
  PORT               HTTP port (default 8080)
  DATABASE_PATH      SQLite path, ":memory:" allowed (default leases.db)
  TIMEZONE           IANA zone that decides "today" (default Asia/Manila)
  REMINDER_INTERVAL  Go duration between reminder passes (default 1h, 0 disables)
  CORS_ORIGINS       Comma-separated allowed origins
*/
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             int
	DatabasePath     string
	Location         *time.Location
	ReminderInterval time.Duration
	CORSOrigins      []string
}

func Defaults() Config {
	return Config{
		Port:             8080,
		DatabasePath:     "leases.db",
		Location:         mustLoadLocation("Asia/Manila"),
		ReminderInterval: time.Hour,
		CORSOrigins:      []string{"http://localhost:5173", "http://localhost:8080"},
	}
}

// Load reads .env if present, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function. Empty values keep defaults.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Defaults()

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return cfg, fmt.Errorf("PORT %q is not a valid port", v)
		}
		cfg.Port = port
	}
	if v := getenv("DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := getenv("TIMEZONE"); v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			return cfg, fmt.Errorf("TIMEZONE %q: %w", v, err)
		}
		cfg.Location = loc
	}
	if v := getenv("REMINDER_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return cfg, fmt.Errorf("REMINDER_INTERVAL %q is not a valid duration", v)
		}
		cfg.ReminderInterval = d
	}
	if v := getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORSOrigins = origins
	}
	return cfg, nil
}

// mustLoadLocation falls back to a fixed +08:00 zone when tzdata is missing.
func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, 8*60*60)
	}
	return loc
}
