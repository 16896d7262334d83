package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables take precedence over file values.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults keep a development instance runnable with only the
	// database URL, JWT secret and SMTP sender configured.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.base_url", "http://localhost:3000")
	v.SetDefault("auth.token_lifetime_minutes", 60)

	// Registered empty so AutomaticEnv can populate them; validation
	// rejects the zero values below.
	v.SetDefault("database.url", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")

	v.SetDefault("smtp.host", "localhost")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.from_email", "noreply@pms.com")
	v.SetDefault("smtp.from_name", "PMS System")
	v.SetDefault("notify.mention_policy", "first")
	v.SetDefault("notify.sweep_interval_seconds", 30)
	v.SetDefault("notify.sweep_batch", 10)
	v.SetDefault("notify.send_timeout_seconds", 15)
	v.SetDefault("notify.max_attempts", 3)
	v.SetDefault("notify.stuck_claim_age_seconds", 300)

	// Optional config file in the working directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing file is fine; environment variables may carry everything.
	}

	// PMS_SERVER_PORT overrides server.port, and so on.
	v.SetEnvPrefix("PMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
