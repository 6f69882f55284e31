package db

import "time"

// Config holds PostgreSQL pool parameters.
// Decoded from the "db_pool" config block; zero fields fall back to DefaultConfig.
type Config struct {
	// Migrations table used by goose.
	MigrationsTable string `mapstructure:"migrations_table"`

	// Health check frequency to detect connection issues early.
	HealthCheckPeriod time.Duration `mapstructure:"healthcheck_period"`

	// Force connection refresh; keeps pgbouncer-style poolers happy.
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`

	// Total connection lifetime, so failovers are picked up.
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`

	// Startup retries with linear backoff.
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`

	MaxOpenConns int32 `mapstructure:"max_open_conns"`
	MinConns     int32 `mapstructure:"min_conns"`
}

// DefaultConfig returns the pool defaults.
func DefaultConfig() Config {
	return Config{
		MigrationsTable:   "schema_migrations",
		HealthCheckPeriod: time.Minute,
		MaxConnIdleTime:   10 * time.Minute,
		MaxConnLifetime:   30 * time.Minute,
		RetryAttempts:     3,
		RetryInterval:     5 * time.Second,
		MaxOpenConns:      10,
		MinConns:          2,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MigrationsTable == "" {
		c.MigrationsTable = d.MigrationsTable
	}
	if c.HealthCheckPeriod == 0 {
		c.HealthCheckPeriod = d.HealthCheckPeriod
	}
	if c.MaxConnIdleTime == 0 {
		c.MaxConnIdleTime = d.MaxConnIdleTime
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = d.MaxConnLifetime
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = d.RetryAttempts
	}
	if c.RetryInterval == 0 {
		c.RetryInterval = d.RetryInterval
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = d.MaxOpenConns
	}
	if c.MinConns == 0 {
		c.MinConns = d.MinConns
	}
	return c
}
