package jobstats

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds configuration for the job engine.
type Config struct {
	// Concurrency is the maximum number of jobs processed concurrently.
	Concurrency int `env:"JOBSTATS_CONCURRENCY" envDefault:"10"`

	// Queues is the list of queues the workers poll.
	Queues []string `env:"JOBSTATS_QUEUES" envDefault:"default" envSeparator:","`

	// PollInterval is how often idle workers poll for new jobs.
	PollInterval time.Duration `env:"JOBSTATS_POLL_INTERVAL" envDefault:"1s"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration `env:"JOBSTATS_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:     10,
		Queues:          []string{"default"},
		PollInterval:    1 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// LoadConfig reads the engine configuration from JOBSTATS_* environment
// variables, falling back to the defaults for unset ones.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports whether the configuration can drive a worker pool.
func (c Config) Validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrency must be positive, got %d", ErrInvalidConfig, c.Concurrency)
	}
	if len(c.Queues) == 0 {
		return fmt.Errorf("%w: at least one queue is required", ErrInvalidConfig)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalidConfig)
	}
	return nil
}
