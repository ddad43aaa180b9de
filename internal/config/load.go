package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take
// precedence over file values and use the SEOFORGE_ prefix with
// underscores for nesting (e.g. SEOFORGE_DATABASE_URL).
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults cover it.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("SEOFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults must be bound explicitly; AutomaticEnv only
	// resolves keys viper already knows about when unmarshalling.
	for _, key := range []string{"database.url", "auth.jwt_secret", "redis.password"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers defaults for everything that has a sensible one.
// Secrets (jwt secret, database url) deliberately have none.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	// 7 days access, 30 days refresh.
	v.SetDefault("auth.token_lifetime_minutes", 7*24*60)
	v.SetDefault("auth.refresh_token_lifetime_minutes", 30*24*60)

	v.SetDefault("provider.base_url", "https://api.dataforseo.com")
	v.SetDefault("provider.timeout_seconds", 30)

	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("task.poll_interval_seconds", 60)
	v.SetDefault("task.queue_concurrency", 5)
	v.SetDefault("task.cost_max_retry", 5)

	v.SetDefault("quota.daily_limit", 1000)
	v.SetDefault("quota.max_concurrent", 5)
}
