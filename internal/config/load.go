package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally a
// config.yaml file in the working directory. Environment variables
// (TASKDECK_ prefix) take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation
// fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file in the working directory
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; everything can come from env
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment variables with TASKDECK_ prefix, dots become underscores
	v.SetEnvPrefix("TASKDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind environment variables so AutomaticEnv picks up
	// keys that never appear in a config file or as defaults.
	bindEnvs := []struct {
		key    string
		envVar string
	}{
		{"database.url", "TASKDECK_DATABASE_URL"},
		{"auth.jwt_secret", "TASKDECK_AUTH_JWT_SECRET"},
		{"server.port", "TASKDECK_SERVER_PORT"},
		{"server.log_level", "TASKDECK_SERVER_LOG_LEVEL"},
		{"notification.smtp_host", "TASKDECK_NOTIFICATION_SMTP_HOST"},
		{"notification.smtp_port", "TASKDECK_NOTIFICATION_SMTP_PORT"},
		{"notification.smtp_username", "TASKDECK_NOTIFICATION_SMTP_USERNAME"},
		{"notification.smtp_password", "TASKDECK_NOTIFICATION_SMTP_PASSWORD"},
		{"notification.from_address", "TASKDECK_NOTIFICATION_FROM_ADDRESS"},
		{"notification.delivery_disabled", "TASKDECK_NOTIFICATION_DELIVERY_DISABLED"},
	}
	for _, env := range bindEnvs {
		if err := v.BindEnv(env.key, env.envVar); err != nil {
			return nil, fmt.Errorf("error binding environment variable %s: %w", env.envVar, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers default values for everything that has a
// sensible one. Secrets and the database URL deliberately have none.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.refresh_token_lifetime_minutes", 10080) // 7 days
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("notification.worker_count", 2)
	v.SetDefault("notification.queue_size", 100)
	v.SetDefault("notification.max_attempts", 3)
	v.SetDefault("notification.stuck_job_age_minutes", 30)
	v.SetDefault("notification.smtp_port", 587)
	v.SetDefault("notification.delivery_disabled", false)

	v.SetDefault("scheduler.sweep_interval_minutes", 15)
	v.SetDefault("scheduler.reminder_lead_hours", 24)
	v.SetDefault("scheduler.retention_days", 30)
}
