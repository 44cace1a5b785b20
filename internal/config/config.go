// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads eventdesk configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-sql-driver/mysql"

	"github.com/olegiv/eventdesk/internal/validation"
)

// Supported database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// knownWeakSecrets contains default/example secrets that must never be used.
var knownWeakSecrets = []string{
	"your_fallback_secret_key",
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	SecretKey  string `env:"EVD_SECRET_KEY,required"`
	ServerHost string `env:"EVD_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"EVD_SERVER_PORT" envDefault:"8080"`
	BaseURL    string `env:"EVD_BASE_URL"` // Public URL used in emailed links; derived from host/port when empty
	Env        string `env:"EVD_ENV" envDefault:"development"`
	LogLevel   string `env:"EVD_LOG_LEVEL" envDefault:"info"`

	// Database configuration
	DBDriver   string `env:"EVD_DB_DRIVER" envDefault:"sqlite"`
	DBPath     string `env:"EVD_DB_PATH" envDefault:"./data/eventdesk.db"`
	DBHost     string `env:"EVD_DB_HOST" envDefault:"localhost"`
	DBPort     int    `env:"EVD_DB_PORT" envDefault:"3306"`
	DBUser     string `env:"EVD_DB_USER"`
	DBPassword string `env:"EVD_DB_PASSWORD"`
	DBName     string `env:"EVD_DB_NAME" envDefault:"event_management"`

	// Reserved admin account, seeded at startup
	AdminEmail    string `env:"EVD_ADMIN_EMAIL" envDefault:"admin@admin.com"`
	AdminPassword string `env:"EVD_ADMIN_PASSWORD"`
	AdminName     string `env:"EVD_ADMIN_NAME" envDefault:"Admin User"`

	ResetTokenTTL         int  `env:"EVD_RESET_TOKEN_TTL" envDefault:"3600"` // Seconds
	RequireEventTime      bool `env:"EVD_REQUIRE_EVENT_TIME" envDefault:"false"`
	ActivityRetentionDays int  `env:"EVD_ACTIVITY_RETENTION_DAYS" envDefault:"90"`

	// Optional Redis URL for shared login-attempt counters
	RedisURL string `env:"EVD_REDIS_URL"`

	// Outgoing mail; a log-only mailer is used when SMTPHost is empty
	SMTPHost     string `env:"EVD_SMTP_HOST"`
	SMTPPort     int    `env:"EVD_SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"EVD_SMTP_USER"`
	SMTPPassword string `env:"EVD_SMTP_PASSWORD"`
	MailFrom     string `env:"EVD_MAIL_FROM" envDefault:"noreply@eventdesk.local"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return net.JoinHostPort(c.ServerHost, strconv.Itoa(c.ServerPort))
}

// PublicURL returns the base URL used to build absolute links.
func (c Config) PublicURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return "http://" + c.ServerAddr()
}

// ResetTokenMaxAge returns the password reset token lifetime.
func (c Config) ResetTokenMaxAge() time.Duration {
	return time.Duration(c.ResetTokenTTL) * time.Second
}

// ActivityRetention returns how long activity log entries are kept.
func (c Config) ActivityRetention() time.Duration {
	return time.Duration(c.ActivityRetentionDays) * 24 * time.Hour
}

// UseRedis returns true if Redis is configured.
func (c Config) UseRedis() bool {
	return c.RedisURL != ""
}

// SMTPEnabled returns true if outgoing mail is configured.
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

// DSN returns the MySQL data source name built from the DB_* settings.
func (c Config) DSN() string {
	mc := mysql.NewConfig()
	mc.User = c.DBUser
	mc.Passwd = c.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort))
	mc.DBName = c.DBName
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.ClientFoundRows = true
	return mc.FormatDSN()
}

// MinSecretKeyLength is the minimum required length for the secret key.
const MinSecretKeyLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SecretKey) < MinSecretKeyLength {
		return nil, fmt.Errorf("EVD_SECRET_KEY must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSecretKeyLength, len(cfg.SecretKey))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SecretKey == weak {
			return nil, fmt.Errorf("EVD_SECRET_KEY is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SecretKey) {
		slog.Warn("EVD_SECRET_KEY has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	switch cfg.DBDriver {
	case DriverSQLite:
	case DriverMySQL:
		if cfg.DBUser == "" {
			return nil, fmt.Errorf("EVD_DB_USER is required when EVD_DB_DRIVER=mysql")
		}
	default:
		return nil, fmt.Errorf("unsupported EVD_DB_DRIVER %q (use %q or %q)", cfg.DBDriver, DriverSQLite, DriverMySQL)
	}

	cfg.AdminEmail = validation.CleanEmail(cfg.AdminEmail)
	if !validation.IsEmail(cfg.AdminEmail) {
		return nil, fmt.Errorf("EVD_ADMIN_EMAIL %q is not a valid email address", cfg.AdminEmail)
	}

	if cfg.ResetTokenTTL <= 0 {
		return nil, fmt.Errorf("EVD_RESET_TOKEN_TTL must be positive, got %d", cfg.ResetTokenTTL)
	}

	if cfg.ActivityRetentionDays <= 0 {
		return nil, fmt.Errorf("EVD_ACTIVITY_RETENTION_DAYS must be positive, got %d", cfg.ActivityRetentionDays)
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
