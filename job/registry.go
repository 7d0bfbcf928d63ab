package job

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// HandlerFunc is a type-erased job handler that accepts the raw JSON payload.
type HandlerFunc func(ctx context.Context, payload []byte) error

type entry struct {
	handler HandlerFunc
	opts    []Option
}

// Registry maps job names to handlers. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// RegisterDefinition registers a typed definition. The payload is decoded
// into T before the typed handler runs. Registering a name twice replaces
// the earlier handler.
func RegisterDefinition[T any](r *Registry, def *Definition[T]) {
	handler := func(ctx context.Context, payload []byte) error {
		var t T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &t); err != nil {
				return fmt.Errorf("unmarshal payload for job %q: %w", def.Name, err)
			}
		}
		return def.Handler(ctx, t)
	}
	r.Register(def.Name, handler, def.Opts...)
}

// Register registers a raw handler under name with enqueue defaults.
func (r *Registry) Register(name string, h HandlerFunc, opts ...Option) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = entry{handler: h, opts: opts}
}

// Get returns the handler for name.
func (r *Registry) Get(name string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.handler, ok
}

// Options returns the enqueue defaults registered for name.
func (r *Registry) Options(name string) []Option {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[name].opts
}

// Names returns all registered job names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
