package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server       ServerConfig       `mapstructure:"server" validate:"required"`
	Database     DatabaseConfig     `mapstructure:"database" validate:"required"`
	Auth         AuthConfig         `mapstructure:"auth" validate:"required"`
	Notification NotificationConfig `mapstructure:"notification" validate:"required"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port           int      `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel       string   `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
	BcryptCost                  int    `mapstructure:"bcrypt_cost" validate:"omitempty,gte=4,lte=31"`
}

// NotificationConfig controls the background notification pipeline:
// the job runner sizing and the SMTP delivery collaborator.
type NotificationConfig struct {
	WorkerCount      int    `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize        int    `mapstructure:"queue_size" validate:"required,gt=0"`
	MaxAttempts      int    `mapstructure:"max_attempts" validate:"required,gt=0"`
	StuckJobAgeMins  int    `mapstructure:"stuck_job_age_minutes" validate:"required,gt=0"`
	SMTPHost         string `mapstructure:"smtp_host"`
	SMTPPort         int    `mapstructure:"smtp_port"`
	SMTPUsername     string `mapstructure:"smtp_username"`
	SMTPPassword     string `mapstructure:"smtp_password"`
	FromAddress      string `mapstructure:"from_address" validate:"omitempty,email"`
	DeliveryDisabled bool   `mapstructure:"delivery_disabled"`
}

// SchedulerConfig controls the periodic sweeps: due-soon reminders and
// archiving of completed tasks past the retention window.
type SchedulerConfig struct {
	SweepIntervalMinutes int `mapstructure:"sweep_interval_minutes" validate:"required,gt=0"`
	ReminderLeadHours    int `mapstructure:"reminder_lead_hours" validate:"required,gt=0"`
	RetentionDays        int `mapstructure:"retention_days" validate:"required,gt=0"`
}
