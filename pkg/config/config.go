// Package config resolves weir configuration from the process environment.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (DATABASE_*, SCHEDULER, WEIR_*)
//  2. Default values
//
// The database parameters are re-resolved on every Load call and the
// resulting Config is treated as immutable by all consumers.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DatabaseConfig holds the Postgres connection parameters.
type DatabaseConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required,gt=0,lte=65535"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name" validate:"required"`
}

// String renders a password-free target description for error messages
// and logging.
func (c DatabaseConfig) String() string {
	return fmt.Sprintf("postgres://%s@%s:%d/%s", c.User, c.Host, c.Port, c.Name)
}

// DSN returns the connection string handed to pgx.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	Endpoint   string  `mapstructure:"endpoint"`
	Insecure   bool    `mapstructure:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1"`
}

// Config is the complete weir process configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Scheduler is informational only; it is surfaced in startup telemetry
	// so operators can tell process-scheduled and externally-scheduled
	// deployments apart.
	Scheduler string `mapstructure:"scheduler" validate:"required"`

	// ShutdownGrace is the window given to supervised tasks to observe
	// cancellation before the process exits regardless.
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace" validate:"required,gt=0"`
}

// envBindings maps config keys to their environment variables. The
// DATABASE_* and SCHEDULER names are part of the operator contract and
// deliberately carry no WEIR_ prefix.
var envBindings = map[string]string{
	"database.host":         "DATABASE_HOST",
	"database.port":         "DATABASE_PORT",
	"database.user":         "DATABASE_USER",
	"database.password":     "DATABASE_PASSWORD",
	"database.name":         "DATABASE_NAME",
	"scheduler":             "SCHEDULER",
	"logging.level":         "WEIR_LOG_LEVEL",
	"logging.format":        "WEIR_LOG_FORMAT",
	"telemetry.enabled":     "WEIR_TELEMETRY_ENABLED",
	"telemetry.endpoint":    "WEIR_OTLP_ENDPOINT",
	"telemetry.insecure":    "WEIR_OTLP_INSECURE",
	"telemetry.sample_rate": "WEIR_TRACE_SAMPLE_RATE",
	"shutdown_grace":        "WEIR_SHUTDOWN_GRACE",
}

// Load resolves the configuration from the environment and validates it.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "weir")
	v.SetDefault("scheduler", "process")
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.format", "text")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.sample_rate", 1.0)
	v.SetDefault("shutdown_grace", 30*time.Second)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
