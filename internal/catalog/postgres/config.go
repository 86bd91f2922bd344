package postgres

import "time"

// Config holds pool sizing and timeout knobs for the PostgreSQL-backed
// catalog (§6 "pool sizing and timeouts"), in the style of
// marmos91-dittofs's PostgresMetadataStoreConfig.
type Config struct {
	DSN string

	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration

	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
}

// ApplyDefaults fills unset fields with conservative defaults.
func (c *Config) ApplyDefaults() {
	if c.MaxConns == 0 {
		c.MaxConns = 10
	}
	if c.MinConns == 0 {
		c.MinConns = 2
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = time.Hour
	}
	if c.MaxConnIdleTime == 0 {
		c.MaxConnIdleTime = 30 * time.Minute
	}
	if c.HealthCheckPeriod == 0 {
		c.HealthCheckPeriod = time.Minute
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.QueryTimeout == 0 {
		c.QueryTimeout = 30 * time.Second
	}
}

// Validate checks the configuration for obvious inconsistencies.
func (c *Config) Validate() error {
	if c.DSN == "" {
		return errRequired("dsn")
	}
	if c.MaxConns < 1 {
		return errInvalid("max_conns must be at least 1")
	}
	if c.MinConns < 0 {
		return errInvalid("min_conns cannot be negative")
	}
	if c.MinConns > c.MaxConns {
		return errInvalid("min_conns cannot exceed max_conns")
	}
	return nil
}

func errRequired(field string) error { return &configError{msg: field + " is required"} }
func errInvalid(msg string) error    { return &configError{msg: msg} }

type configError struct{ msg string }

func (e *configError) Error() string { return "postgres: " + e.msg }
