package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	SMTP     SMTPConfig     `mapstructure:"smtp"     validate:"required"`
	Notify   NotifyConfig   `mapstructure:"notify"   validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// Env selects the execution mode. In "production" an enqueued email
	// triggers one best-effort immediate sweep; the periodic sweep remains
	// the reliable delivery path in every mode.
	Env string `mapstructure:"env" validate:"required,oneof=development production"`
	// BaseURL is used to build deep links embedded in notifications and emails.
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// SMTPConfig contains the outbound mail transport settings.
type SMTPConfig struct {
	Host      string `mapstructure:"host"       validate:"required"`
	Port      int    `mapstructure:"port"       validate:"required,gt=0,lt=65536"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	FromEmail string `mapstructure:"from_email" validate:"required,email"`
	FromName  string `mapstructure:"from_name"  validate:"required"`
}

// NotifyConfig tunes the notification fan-out and the email delivery queue.
type NotifyConfig struct {
	// MentionPolicy controls how a mention token matching more than one
	// active user is resolved: "first" picks the oldest matching account,
	// "skip" drops the ambiguous token entirely.
	MentionPolicy string `mapstructure:"mention_policy" validate:"required,oneof=first skip"`
	// SweepIntervalSeconds is the period of the email queue sweep.
	SweepIntervalSeconds int `mapstructure:"sweep_interval_seconds" validate:"required,gt=0"`
	// SweepBatch bounds how many due emails one sweep may claim.
	SweepBatch int `mapstructure:"sweep_batch" validate:"required,gt=0"`
	// SendTimeoutSeconds bounds a single transport delivery attempt.
	SendTimeoutSeconds int `mapstructure:"send_timeout_seconds" validate:"required,gt=0"`
	// MaxAttempts is the per-email delivery attempt bound.
	MaxAttempts int `mapstructure:"max_attempts" validate:"required,gt=0"`
	// StuckClaimAgeSeconds is how long a claimed email may sit in the
	// in-flight state before the sweep resets it to pending.
	StuckClaimAgeSeconds int `mapstructure:"stuck_claim_age_seconds" validate:"required,gt=0"`
}
