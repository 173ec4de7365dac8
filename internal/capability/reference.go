package capability

import (
	"fmt"
	"sync"
)

// Reference binds a capability name to a Resolver and resolves it at most once.
// Both the provider and a resolution failure are memoized for the process lifetime.
type Reference struct {
	name     string
	resolver Resolver

	once     sync.Once
	provider Provider
	err      error
}

// NewReference creates an unresolved Reference.
func NewReference(name string, resolver Resolver) *Reference {
	return &Reference{name: name, resolver: resolver}
}

// Name returns the logical capability name.
func (r *Reference) Name() string {
	return r.name
}

// Provider resolves on first use and returns the memoized outcome afterwards.
func (r *Reference) Provider() (Provider, error) {
	r.once.Do(r.resolve)
	return r.provider, r.err
}

// resolve stores a resolver panic or a nil provider as ErrUnresolved so a
// broken lookup is never served as a provider failure.
func (r *Reference) resolve() {
	defer func() {
		if rec := recover(); rec != nil {
			r.provider = nil
			r.err = fmt.Errorf("capability %q: %w: resolver panic: %v", r.name, ErrUnresolved, rec)
		}
	}()
	r.provider, r.err = r.resolver.Resolve(r.name)
	if r.err == nil && r.provider == nil {
		r.err = fmt.Errorf("capability %q: %w: resolver returned no provider", r.name, ErrUnresolved)
	}
}
