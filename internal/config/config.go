package config

import (
	"fmt"
	"time"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Business  BusinessConfig  `mapstructure:"business"`
	Health    HealthConfig    `mapstructure:"health"`
}

type ServerConfig struct {
	Port         string `mapstructure:"SERVER_PORT"`
	Host         string `mapstructure:"SERVER_HOST"`
	Env          string `mapstructure:"ENV"`
	ReadTimeout  string `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout string `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	URL             string `mapstructure:"DATABASE_URL"`
	Host            string `mapstructure:"DATABASE_HOST"`
	Port            string `mapstructure:"DATABASE_PORT"`
	Name            string `mapstructure:"DATABASE_NAME"`
	User            string `mapstructure:"DATABASE_USER"`
	Password        string `mapstructure:"DATABASE_PASSWORD"`
	SSLMode         string `mapstructure:"DATABASE_SSLMODE"`
	MaxOpenConns    int    `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime string `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	URL      string `mapstructure:"REDIS_URL"`
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type SchedulerConfig struct {
	OverdueScanSpec string `mapstructure:"SCHEDULER_OVERDUE_SCAN_SPEC"`
	Timezone        string `mapstructure:"SCHEDULER_TIMEZONE"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type BusinessConfig struct {
	// SplitTolerance is how far (in minor units) an origination split may
	// drift from the net disbursement before it is rejected. Repayment
	// splits are always matched exactly regardless of this setting.
	SplitTolerance int64  `mapstructure:"SPLIT_TOLERANCE_MINOR_UNITS"`
	StatusCacheTTL string `mapstructure:"STATUS_CACHE_TTL"`
	ReportCacheTTL string `mapstructure:"REPORT_CACHE_TTL"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" && c.Database.Host == "" {
		return fmt.Errorf("DATABASE_URL or DATABASE_HOST is required")
	}

	if c.Business.SplitTolerance < 0 {
		return fmt.Errorf("SPLIT_TOLERANCE_MINOR_UNITS must not be negative")
	}

	for name, value := range map[string]string{
		"SERVER_READ_TIMEOUT":        c.Server.ReadTimeout,
		"SERVER_WRITE_TIMEOUT":       c.Server.WriteTimeout,
		"DATABASE_CONN_MAX_LIFETIME": c.Database.ConnMaxLifetime,
		"STATUS_CACHE_TTL":           c.Business.StatusCacheTTL,
		"REPORT_CACHE_TTL":           c.Business.ReportCacheTTL,
		"HEALTH_CHECK_TIMEOUT":       c.Health.Timeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s must be a valid duration: %w", name, err)
		}
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// DSN returns the Postgres connection string, preferring DATABASE_URL.
func (d *DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// GetConnMaxLifetime returns the database connection lifetime as duration
func (d *DatabaseConfig) GetConnMaxLifetime() time.Duration {
	lifetime, _ := time.ParseDuration(d.ConnMaxLifetime)
	return lifetime
}

// GetReadTimeout returns the server read timeout as duration
func (s *ServerConfig) GetReadTimeout() time.Duration {
	timeout, _ := time.ParseDuration(s.ReadTimeout)
	return timeout
}

// GetWriteTimeout returns the server write timeout as duration
func (s *ServerConfig) GetWriteTimeout() time.Duration {
	timeout, _ := time.ParseDuration(s.WriteTimeout)
	return timeout
}

// GetStatusCacheTTL returns the loan status cache TTL as duration
func (b *BusinessConfig) GetStatusCacheTTL() time.Duration {
	ttl, _ := time.ParseDuration(b.StatusCacheTTL)
	return ttl
}

// GetReportCacheTTL returns the collection report cache TTL as duration
func (b *BusinessConfig) GetReportCacheTTL() time.Duration {
	ttl, _ := time.ParseDuration(b.ReportCacheTTL)
	return ttl
}

// GetHealthTimeout returns the health check timeout as duration
func (c *Config) GetHealthTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Health.Timeout)
	return timeout
}
