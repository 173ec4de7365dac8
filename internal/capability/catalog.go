package capability

import (
	"fmt"
	"strings"
	"sync"
)

// Factory constructs the Provider for one capability.
type Factory func() (Provider, error)

// Catalog maps capability names to provider factories. A deployment unit owns one
// Catalog keyed by bare names; a parent process may Include it under a namespace.
type Catalog struct {
	mu        sync.RWMutex
	factories map[string]Factory
	order     []string
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		factories: make(map[string]Factory),
	}
}

// Register binds name to factory.
func (c *Catalog) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("capability name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("capability %q: factory cannot be nil", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.factories[name]; exists {
		return fmt.Errorf("capability %q already registered", name)
	}
	c.factories[name] = factory
	c.order = append(c.order, name)
	return nil
}

// Include copies every entry of other into c under namespace, so "bugsmusic"
// becomes "services.crawlerservice.bugsmusic".
func (c *Catalog) Include(namespace string, other *Catalog) error {
	if other == nil {
		return nil
	}
	for _, name := range other.Names() {
		factory, ok := other.lookup(name)
		if !ok {
			continue
		}
		if err := c.Register(Qualify(namespace, name), factory); err != nil {
			return fmt.Errorf("include %s: %w", namespace, err)
		}
	}
	return nil
}

// Lookup returns the factory registered under name. A nil Catalog holds nothing.
func (c *Catalog) Lookup(name string) (Factory, error) {
	factory, ok := c.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return factory, nil
}

// Names returns registered names in registration order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

func (c *Catalog) lookup(name string) (Factory, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	factory, ok := c.factories[name]
	return factory, ok
}

// Qualify joins a namespace and a capability name.
func Qualify(namespace, name string) string {
	namespace = strings.TrimSuffix(namespace, ".")
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}
