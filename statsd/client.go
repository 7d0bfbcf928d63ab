package statsd

import (
	"fmt"
	"time"

	cactus "github.com/cactus/go-statsd-client/v5/statsd"
)

// Client is the subset of a StatsD client the middleware needs.
type Client interface {
	// Increment adds one to the counter name.
	Increment(name string) error

	// Time runs fn and sends its duration as the timer name, including
	// when fn fails or panics. It returns fn's error if there is one,
	// otherwise the error from sending the timing.
	Time(name string, fn func() error) error

	// Gauge sets the gauge name to value.
	Gauge(name string, value int64) error

	// Close flushes buffered metrics and releases the connection.
	Close() error
}

// UDPClient is a Client that writes the StatsD line protocol over UDP.
type UDPClient struct {
	statter cactus.Statter
}

var _ Client = (*UDPClient)(nil)

// NewUDPClient dials the daemon at cfg.Address(). When cfg.Buffered is set,
// metrics are coalesced into packets flushed every cfg.FlushInterval.
func NewUDPClient(cfg Config) (*UDPClient, error) {
	statter, err := cactus.NewClientWithConfig(&cactus.ClientConfig{
		Address:       cfg.Address(),
		UseBuffered:   cfg.Buffered,
		FlushInterval: cfg.FlushInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("statsd: dial %s: %w", cfg.Address(), err)
	}
	return &UDPClient{statter: statter}, nil
}

// Increment implements Client.
func (c *UDPClient) Increment(name string) error {
	return c.statter.Inc(name, 1, 1.0)
}

// Time implements Client.
func (c *UDPClient) Time(name string, fn func() error) (err error) {
	start := time.Now()
	defer func() {
		sendErr := c.statter.TimingDuration(name, time.Since(start), 1.0)
		if err == nil {
			err = sendErr
		}
	}()
	return fn()
}

// Gauge implements Client.
func (c *UDPClient) Gauge(name string, value int64) error {
	return c.statter.Gauge(name, value, 1.0)
}

// Close implements Client.
func (c *UDPClient) Close() error {
	return c.statter.Close()
}
