// Package config loads server configuration from the environment with an
// optional YAML file overlay.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds server configuration.
type Config struct {
	Port         string        `yaml:"port"`
	LogLevel     string        `yaml:"log_level"`
	DatabasePath string        `yaml:"database_path"`
	JWTSecret    string        `yaml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"-"`
	TokenTTLRaw  string        `yaml:"token_ttl"`
	CORSOrigins  []string      `yaml:"cors_origins"`

	// RateLimitRPM of 0 disables rate limiting.
	RateLimitRPM   int `yaml:"rate_limit_rpm"`
	RateLimitBurst int `yaml:"rate_limit_burst"`

	// RedisAddr, when set, moves rate limit buckets to Redis so limits
	// hold across replicas.
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// OTLPEndpoint, when set, enables trace and metric export.
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// Load reads configuration from environment variables. If SYNCBOARD_CONFIG
// names a YAML file, its values are applied first and the environment
// overrides them.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           "8080",
		LogLevel:       "INFO",
		DatabasePath:   "syncboard.db",
		TokenTTL:       24 * time.Hour,
		RateLimitRPM:   300,
		RateLimitBurst: 50,
	}

	if path := os.Getenv("SYNCBOARD_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		if cfg.TokenTTLRaw != "" {
			d, err := time.ParseDuration(cfg.TokenTTLRaw)
			if err != nil {
				return nil, fmt.Errorf("parse token_ttl: %w", err)
			}
			cfg.TokenTTL = d
		}
	}

	cfg.applyEnv()

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Port, "PORT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.DatabasePath, "DATABASE_PATH")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.RedisAddr, "REDIS_ADDR")
	setString(&c.RedisPassword, "REDIS_PASSWORD")
	setString(&c.OTLPEndpoint, "OTLP_ENDPOINT")
	setInt(&c.RateLimitRPM, "RATE_LIMIT_RPM")
	setInt(&c.RateLimitBurst, "RATE_LIMIT_BURST")
	setInt(&c.RedisDB, "REDIS_DB")

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.TokenTTL = d
		}
	}
	// CORS_ORIGINS is consumed by the CORS middleware directly.
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Addr is the listen address derived from Port.
func (c *Config) Addr() string {
	return ":" + c.Port
}
