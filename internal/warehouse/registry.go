package warehouse

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/skyler-myers-db/data-api-serving/internal/config"
)

// Factory creates an executor from service configuration.
type Factory func(ctx context.Context, cfg *config.Config) (Executor, error)

// Registry holds executor factories indexed by backend name.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for the given backend name.
// Panics if the backend is already registered.
func (r *Registry) Register(backend string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[backend]; exists {
		panic(fmt.Sprintf("warehouse backend already registered: %s", backend))
	}
	r.factories[backend] = factory
}

// Get returns the factory for the given backend.
func (r *Registry) Get(backend string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[backend]
	return factory, ok
}

// List returns all registered backend names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open instantiates the executor for the given backend.
func (r *Registry) Open(ctx context.Context, backend string, cfg *config.Config) (Executor, error) {
	factory, ok := r.Get(backend)
	if !ok {
		return nil, fmt.Errorf("unknown warehouse backend %q (have: %s)", backend, strings.Join(r.List(), ", "))
	}
	return factory(ctx, cfg)
}

// --- Default Global Registry ---

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the global backend registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds a factory to the default registry.
func Register(backend string, factory Factory) {
	defaultRegistry.Register(backend, factory)
}

// Open instantiates a backend from the default registry.
func Open(ctx context.Context, backend string, cfg *config.Config) (Executor, error) {
	return defaultRegistry.Open(ctx, backend, cfg)
}
