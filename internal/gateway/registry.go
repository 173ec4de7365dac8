package gateway

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aifixr/feed-gateway/internal/capability"
	"github.com/aifixr/feed-gateway/internal/router"
)

// RouterFactory builds a capability router. parent is the gateway's catalog,
// through which embedded routers reach providers by qualified name.
type RouterFactory func(parent *capability.Catalog) *router.Router

// Registry maps router names to factories in registration order.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]RouterFactory
	order     []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]RouterFactory)}
}

// Register adds a router factory under name.
func (r *Registry) Register(name string, factory RouterFactory) error {
	if name == "" {
		return errors.New("router name is required")
	}
	if factory == nil {
		return fmt.Errorf("router %q: nil factory", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("router %q already registered", name)
	}
	r.factories[name] = factory
	r.order = append(r.order, name)
	return nil
}

// Names returns registered router names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) factory(name string) (RouterFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}
