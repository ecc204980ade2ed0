package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	Session SessionConfig
	Rules   RulesConfig
	DB      DatabaseConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	RateLimitRPS int
	CORSOrigins  []string
}

type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
	MaxSessions   int
}

type RulesConfig struct {
	Path         string // empty uses the embedded table
	MapSearchURL string
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "localhost"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS: getEnvInt("RATE_LIMIT_RPS", 5),
			CORSOrigins:  getEnvList("CORS_ORIGINS", []string{"*"}),
		},
		Session: SessionConfig{
			TTL:           getEnvDuration("SESSION_TTL", 30*time.Minute),
			SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", time.Minute),
			MaxSessions:   getEnvInt("SESSION_MAX", 10000),
		},
		Rules: RulesConfig{
			Path:         getEnv("RULES_PATH", ""),
			MapSearchURL: getEnv("MAP_SEARCH_URL", "https://www.google.com/maps/search/?q="),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/reports.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("invalid rate limit: %d", c.Server.RateLimitRPS)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Session.TTL < time.Minute {
		return fmt.Errorf("session TTL must be at least 1 minute")
	}
	if c.Session.SweepInterval < time.Second {
		return fmt.Errorf("session sweep interval must be at least 1 second")
	}

	if c.Session.MaxSessions < 1 {
		return fmt.Errorf("invalid session limit: %d", c.Session.MaxSessions)
	}

	if c.DB.Path == "" {
		return fmt.Errorf("database path is required")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping empty items.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}

	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
