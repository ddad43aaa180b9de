package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Provider ProviderConfig `mapstructure:"provider" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis" validate:"required"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
	Quota    QuotaConfig    `mapstructure:"quota" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
	// Access tokens default to 7 days; refresh tokens live longer so the
	// dashboard can silently renew sessions.
	TokenLifetimeMinutes        int `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
}

// ProviderConfig contains settings for the DataForSEO API client.
// Per-user login/password pairs live in the database, not here.
type ProviderConfig struct {
	BaseURL        string `mapstructure:"base_url" validate:"required,url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"required,gt=0"`
}

// RedisConfig contains connection settings for redis, which backs the
// cost-recording queue and the per-user quota counters.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	Password string `mapstructure:"password"`
}

// TaskConfig contains settings for the background workers: the readiness
// poller and the asynq cost recorder.
type TaskConfig struct {
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds" validate:"required,gt=0"`
	QueueConcurrency    int `mapstructure:"queue_concurrency" validate:"required,gt=0"`
	CostMaxRetry        int `mapstructure:"cost_max_retry" validate:"gte=0"`
}

// QuotaConfig contains the per-user request limits enforced by the
// rate-limit middleware.
type QuotaConfig struct {
	DailyLimit    int `mapstructure:"daily_limit" validate:"required,gt=0"`
	MaxConcurrent int `mapstructure:"max_concurrent" validate:"required,gt=0"`
}
