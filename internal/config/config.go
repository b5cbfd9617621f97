// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables (and an optional config file). The resulting Config is built once
// at process start and handed to every component that needs it.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Docstore backends.
const (
	DocstorePostgres = "postgres"
	DocstoreMemory   = "memory"
)

// Config holds all application configuration values.
type Config struct {
	// Server settings
	Host     string
	Port     string
	Env      string // "development", "production", "testing"
	LogLevel string

	// Document store backend: "postgres" or "memory".
	Docstore string

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int

	// Valkey (Redis-compatible cache + sessions)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	ValkeyDB       int

	// AdminCollection names the collection holding admin membership
	// records. Empty disables the admin feature entirely.
	AdminCollection string

	// UserIDCookieFallback lets the identity resolver accept a plain
	// "user-id" cookie when no session cookie is present.
	UserIDCookieFallback bool

	// S3-compatible blob storage
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string // base used when building file view URLs
	S3ProjectID string

	// One-time code sign-in
	OTPIssuer      string
	OTPTTL         time.Duration
	OTPMaxAttempts int

	// Upload limits
	MaxUploadBytes int64

	// Post content rules
	MinWords int
	MaxWords int
}

// defaults maps every key to its fallback value. Keys are the lowercased
// environment variable names.
var defaults = map[string]any{
	"app_host":                "0.0.0.0",
	"app_port":                "8080",
	"app_env":                 "development",
	"log_level":               "debug",
	"docstore":                DocstorePostgres,
	"postgres_host":           "localhost",
	"postgres_port":           "5432",
	"postgres_user":           "inkwell",
	"postgres_password":       "changeme",
	"postgres_db":             "inkwell",
	"postgres_max_conns":      25,
	"valkey_host":             "localhost",
	"valkey_port":             "6379",
	"valkey_password":         "",
	"valkey_db":               0,
	"admin_collection":        "",
	"user_id_cookie_fallback": "",
	"s3_endpoint":             "",
	"s3_region":               "us-east-1",
	"s3_access_key":           "",
	"s3_secret_key":           "",
	"s3_bucket":               "inkwell-media",
	"s3_public_url":           "",
	"s3_project_id":           "inkwell",
	"otp_issuer":              "Inkwell",
	"otp_ttl":                 "10m",
	"otp_max_attempts":        5,
	"max_upload_bytes":        5 << 20,
	"post_min_words":          1,
	"post_max_words":          20000,
}

// Load reads configuration from the environment, applying defaults for
// development where appropriate. If INKWELL_CONFIG points at a file, values
// from that file are read first and the environment still wins.
// Returns an error if critical values are missing in production mode.
func Load() (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	if path := v.GetString("inkwell_config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Host:     v.GetString("app_host"),
		Port:     v.GetString("app_port"),
		Env:      v.GetString("app_env"),
		LogLevel: strings.ToLower(v.GetString("log_level")),
		Docstore: strings.ToLower(v.GetString("docstore")),

		DBHost:     v.GetString("postgres_host"),
		DBPort:     v.GetString("postgres_port"),
		DBUser:     v.GetString("postgres_user"),
		DBPassword: v.GetString("postgres_password"),
		DBName:     v.GetString("postgres_db"),
		DBMaxConns: v.GetInt("postgres_max_conns"),

		ValkeyHost:     v.GetString("valkey_host"),
		ValkeyPort:     v.GetString("valkey_port"),
		ValkeyPassword: v.GetString("valkey_password"),
		ValkeyDB:       v.GetInt("valkey_db"),

		AdminCollection: strings.TrimSpace(v.GetString("admin_collection")),

		S3Endpoint:  v.GetString("s3_endpoint"),
		S3Region:    v.GetString("s3_region"),
		S3AccessKey: v.GetString("s3_access_key"),
		S3SecretKey: v.GetString("s3_secret_key"),
		S3Bucket:    v.GetString("s3_bucket"),
		S3PublicURL: v.GetString("s3_public_url"),
		S3ProjectID: v.GetString("s3_project_id"),

		OTPIssuer:      v.GetString("otp_issuer"),
		OTPTTL:         v.GetDuration("otp_ttl"),
		OTPMaxAttempts: v.GetInt("otp_max_attempts"),

		MaxUploadBytes: v.GetInt64("max_upload_bytes"),

		MinWords: v.GetInt("post_min_words"),
		MaxWords: v.GetInt("post_max_words"),
	}

	// The plain user-id cookie is only trusted in development unless the
	// operator turns it on explicitly.
	if raw := v.GetString("user_id_cookie_fallback"); raw != "" {
		cfg.UserIDCookieFallback = v.GetBool("user_id_cookie_fallback")
	} else {
		cfg.UserIDCookieFallback = cfg.IsDev()
	}

	if cfg.Docstore != DocstorePostgres && cfg.Docstore != DocstoreMemory {
		return nil, fmt.Errorf("DOCSTORE must be %q or %q, got %q", DocstorePostgres, DocstoreMemory, cfg.Docstore)
	}
	if cfg.OTPTTL <= 0 {
		return nil, fmt.Errorf("OTP_TTL must be positive")
	}
	if cfg.DBMaxConns < 1 {
		return nil, fmt.Errorf("POSTGRES_MAX_CONNS must be at least 1, got %d", cfg.DBMaxConns)
	}
	if cfg.ValkeyDB < 0 || cfg.ValkeyDB > 15 {
		return nil, fmt.Errorf("VALKEY_DB must be between 0 and 15, got %d", cfg.ValkeyDB)
	}
	if cfg.MinWords < 0 || cfg.MaxWords < cfg.MinWords {
		return nil, fmt.Errorf("invalid word bounds: min %d, max %d", cfg.MinWords, cfg.MaxWords)
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.Docstore == DocstoreMemory {
			return nil, fmt.Errorf("the memory docstore cannot be used in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// ValkeyAddr returns the Valkey address (host:port).
func (c *Config) ValkeyAddr() string {
	return fmt.Sprintf("%s:%s", c.ValkeyHost, c.ValkeyPort)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// AdminEnabled reports whether an admin collection is configured.
func (c *Config) AdminEnabled() bool {
	return c.AdminCollection != ""
}

// StorageEnabled reports whether blob storage credentials are present.
func (c *Config) StorageEnabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}
