// Package statsdtest provides an in-memory statsd.Client for tests.
package statsdtest

import (
	"sync"
	"time"

	"github.com/xraph/jobstats/statsd"
)

// Kind names the client method that produced a Call.
type Kind string

const (
	KindIncrement Kind = "increment"
	KindTiming    Kind = "timing"
	KindGauge     Kind = "gauge"
)

// Call is one recorded metric.
type Call struct {
	Kind     Kind
	Name     string
	Value    int64
	Duration time.Duration
}

// Recorder satisfies statsd.Client and remembers every call. Set Err to
// make every send fail after it is recorded.
type Recorder struct {
	mu     sync.Mutex
	calls  []Call
	closed bool

	Err error
}

var _ statsd.Client = (*Recorder)(nil)

// New returns an empty Recorder.
func New() *Recorder { return &Recorder{} }

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
	return r.Err
}

// Increment records a counter bump.
func (r *Recorder) Increment(name string) error {
	return r.record(Call{Kind: KindIncrement, Name: name, Value: 1})
}

// Time runs fn and records its duration, even if fn panics.
func (r *Recorder) Time(name string, fn func() error) (err error) {
	start := time.Now()
	defer func() {
		sendErr := r.record(Call{Kind: KindTiming, Name: name, Duration: time.Since(start)})
		if err == nil {
			err = sendErr
		}
	}()
	return fn()
}

// Gauge records a gauge value.
func (r *Recorder) Gauge(name string, value int64) error {
	return r.record(Call{Kind: KindGauge, Name: name, Value: value})
}

// Close marks the recorder closed.
func (r *Recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Calls returns a copy of all recorded calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Count returns how many calls of kind were made for name.
func (r *Recorder) Count(kind Kind, name string) int {
	n := 0
	for _, c := range r.Calls() {
		if c.Kind == kind && c.Name == name {
			n++
		}
	}
	return n
}

// CountKind returns how many calls of kind were made for any name.
func (r *Recorder) CountKind(kind Kind) int {
	n := 0
	for _, c := range r.Calls() {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// Gauges returns the last value sent for each gauge name.
func (r *Recorder) Gauges() map[string]int64 {
	out := make(map[string]int64)
	for _, c := range r.Calls() {
		if c.Kind == KindGauge {
			out[c.Name] = c.Value
		}
	}
	return out
}

// Reset forgets all recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}
