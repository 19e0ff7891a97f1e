package adapters

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jpp0ca/TrackFetch/internal/domain"
	"github.com/jpp0ca/TrackFetch/internal/ports"
)

// Named is implemented by every pluggable adapter.
type Named interface {
	Name() string
}

// Registry maps adapter names to implementations. It is safe for concurrent
// use.
type Registry[T Named] struct {
	mu    sync.RWMutex
	items map[string]T
}

// SourceRegistry holds the track sources that can seed a batch.
type SourceRegistry = Registry[ports.TrackSource]

// MaterializerRegistry holds the available fetch/transcode backends.
type MaterializerRegistry = Registry[ports.Materializer]

// NewSourceRegistry creates an empty source registry.
func NewSourceRegistry() *SourceRegistry {
	return &SourceRegistry{items: make(map[string]ports.TrackSource)}
}

// NewMaterializerRegistry creates an empty materializer registry.
func NewMaterializerRegistry() *MaterializerRegistry {
	return &MaterializerRegistry{items: make(map[string]ports.Materializer)}
}

// Register adds an item to the registry, keyed by its Name().
func (r *Registry[T]) Register(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.items == nil {
		r.items = make(map[string]T)
	}
	r.items[item.Name()] = item
}

// Get returns the item for the given name, or an error wrapping
// domain.ErrUnknownSource if not found.
func (r *Registry[T]) Get(name string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[name]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", domain.ErrUnknownSource, name)
	}
	return item, nil
}

// Available returns the registered names in lexical order.
func (r *Registry[T]) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
