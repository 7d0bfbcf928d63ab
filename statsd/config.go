package statsd

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/xraph/jobstats"
)

const (
	DefaultHost   = "localhost"
	DefaultPort   = 8125
	DefaultPrefix = "worker"
	DefaultEnv    = "production"
)

// Config is the resolved middleware configuration. It is fixed once New
// returns.
type Config struct {
	Host   string `env:"STATSD_HOST" envDefault:"localhost"`
	Port   int    `env:"STATSD_PORT" envDefault:"8125"`
	Prefix string `env:"STATSD_PREFIX" envDefault:"worker"`

	// Env is the leading metric segment. Empty drops the segment.
	Env string `env:"STATSD_ENV"`

	// GlobalStats enables the queue gauges. When false no gauge is ever
	// sent and no QueueStats is held.
	GlobalStats bool `env:"STATSD_GLOBAL_STATS" envDefault:"true"`

	// QueueStats adds per-queue size and latency gauges for the job's own
	// queue. It only applies while GlobalStats is on.
	QueueStats bool `env:"STATSD_QUEUE_STATS" envDefault:"true"`

	// Buffered coalesces metrics into fewer UDP packets.
	Buffered      bool          `env:"STATSD_BUFFERED" envDefault:"true"`
	FlushInterval time.Duration `env:"STATSD_FLUSH_INTERVAL" envDefault:"300ms"`

	// GaugeInterval caps how often gauges are sampled. Zero samples after
	// every job.
	GaugeInterval time.Duration `env:"STATSD_GAUGE_INTERVAL" envDefault:"0s"`
}

// DefaultConfig returns the defaults, with Env read from STATSD_ENV or
// APP_ENV when set.
func DefaultConfig() Config {
	return Config{
		Host:          DefaultHost,
		Port:          DefaultPort,
		Prefix:        DefaultPrefix,
		Env:           envLabel(os.Getenv("STATSD_ENV")),
		GlobalStats:   true,
		QueueStats:    true,
		Buffered:      true,
		FlushInterval: 300 * time.Millisecond,
	}
}

// LoadConfig reads STATSD_* variables on top of the defaults.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", jobstats.ErrInvalidConfig, err)
	}
	cfg.Env = envLabel(cfg.Env)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envLabel(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		return v
	}
	return DefaultEnv
}

// Address returns "host:port".
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks the transport settings.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: statsd host is empty", jobstats.ErrInvalidConfig)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: statsd port %d out of range", jobstats.ErrInvalidConfig, c.Port)
	}
	if c.Buffered && c.FlushInterval <= 0 {
		return fmt.Errorf("%w: flush interval must be positive when buffered", jobstats.ErrInvalidConfig)
	}
	if c.GaugeInterval < 0 {
		return fmt.Errorf("%w: gauge interval is negative", jobstats.ErrInvalidConfig)
	}
	return nil
}
