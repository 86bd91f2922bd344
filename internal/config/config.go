// Package config loads the object store's runtime configuration from
// environment variables via viper, grounded on marmos91-dittofs's
// pkg/config/config.go layering (env > defaults), and validates it with
// go-playground/validator struct tags. It replaces the teacher's bare
// os.Getenv-based config.Load (§6 "Configuration").
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pepperjack/objectstore/internal/catalog/postgres"
	"github.com/pepperjack/objectstore/internal/gc"
)

// Config is the full runtime configuration surface named by §6.
type Config struct {
	// ListenAddress is the HTTP bind address, e.g. ":8080".
	ListenAddress string `mapstructure:"listen_address" validate:"required"`

	// CatalogDSN is the PostgreSQL connection string for C4/C5.
	CatalogDSN string `mapstructure:"catalog_dsn" validate:"required"`

	// HotRoot and ColdRoot are the filesystem roots backing C3's two
	// storage classes.
	HotRoot  string `mapstructure:"hot_root" validate:"required"`
	ColdRoot string `mapstructure:"cold_root" validate:"required"`

	// DurableWrites fsyncs blob writes before the commit rename (§4.3).
	DurableWrites bool `mapstructure:"durable_writes"`

	// GC holds the C9 scheduling knobs.
	GC GCConfig `mapstructure:"gc"`

	// Pool holds catalog connection pool sizing and timeouts.
	Pool PoolConfig `mapstructure:"pool"`
}

// GCConfig mirrors gc.Config's fields for env-driven construction; see §4.9.
type GCConfig struct {
	IntervalSeconds      int     `mapstructure:"interval_seconds" validate:"required,min=10"`
	StuckUploadEveryN    int     `mapstructure:"stuck_upload_every_n" validate:"omitempty,min=1"`
	StuckUploadAgeHours  float64 `mapstructure:"stuck_upload_age_hours" validate:"omitempty,gt=0"`
	BatchSize            int     `mapstructure:"batch_size" validate:"required,min=1,max=1000"`
	ConcurrentBatchSize  int     `mapstructure:"concurrent_batch_size" validate:"omitempty,min=1"`
	ReconcileFilesystem  bool    `mapstructure:"reconcile_filesystem"`
}

// PoolConfig mirrors catalog/postgres.Config's pool-sizing fields.
type PoolConfig struct {
	MaxConns          int           `mapstructure:"max_conns" validate:"omitempty,min=1"`
	MinConns          int           `mapstructure:"min_conns" validate:"omitempty,min=0"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout" validate:"omitempty,gt=0"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period" validate:"omitempty,gt=0"`
}

// Load reads configuration from OBJSTORE_-prefixed environment variables,
// applies defaults for anything unset, and validates the result.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("OBJSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	applyDefaults(v)

	// Bind every mapstructure key explicitly: AutomaticEnv alone only
	// resolves keys viper already knows about via a prior Set/default.
	for _, key := range []string{
		"listen_address", "catalog_dsn", "hot_root", "cold_root", "durable_writes",
		"gc.interval_seconds", "gc.stuck_upload_every_n", "gc.stuck_upload_age_hours",
		"gc.batch_size", "gc.concurrent_batch_size", "gc.reconcile_filesystem",
		"pool.max_conns", "pool.min_conns", "pool.connect_timeout", "pool.health_check_period",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("listen_address", ":8080")
	v.SetDefault("durable_writes", true)

	v.SetDefault("gc.interval_seconds", 60)
	v.SetDefault("gc.stuck_upload_every_n", 10)
	v.SetDefault("gc.stuck_upload_age_hours", 1)
	v.SetDefault("gc.batch_size", 100)
	v.SetDefault("gc.concurrent_batch_size", 10)
	v.SetDefault("gc.reconcile_filesystem", false)

	v.SetDefault("pool.max_conns", 10)
	v.SetDefault("pool.min_conns", 2)
	v.SetDefault("pool.connect_timeout", 5*time.Second)
	v.SetDefault("pool.health_check_period", time.Minute)
}

// GCInterval returns cfg.GC.IntervalSeconds as a time.Duration.
func (c *Config) GCInterval() time.Duration {
	return time.Duration(c.GC.IntervalSeconds) * time.Second
}

// PostgresConfig builds a catalog/postgres.Config from c's DSN and
// pool-sizing fields.
func (c *Config) PostgresConfig() postgres.Config {
	cfg := postgres.Config{
		DSN:               c.CatalogDSN,
		MaxConns:          int32(c.Pool.MaxConns),
		MinConns:          int32(c.Pool.MinConns),
		ConnectTimeout:    c.Pool.ConnectTimeout,
		HealthCheckPeriod: c.Pool.HealthCheckPeriod,
	}
	cfg.ApplyDefaults()
	return cfg
}

// GarbageCollectorConfig builds a gc.Config from c's GC fields.
func (c *Config) GarbageCollectorConfig() gc.Config {
	return gc.Config{
		Interval:            c.GCInterval(),
		StuckUploadEveryN:   c.GC.StuckUploadEveryN,
		StuckUploadAgeHours: c.GC.StuckUploadAgeHours,
		BatchSize:           c.GC.BatchSize,
		ConcurrentBatchSize: c.GC.ConcurrentBatchSize,
		ReconcileFilesystem: c.GC.ReconcileFilesystem,
	}
}
