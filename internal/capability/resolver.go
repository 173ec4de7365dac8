package capability

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound reports that a resolver has no entry for a name. Only this
	// error lets a Chain move on to its next resolver.
	ErrNotFound = errors.New("capability not found")

	// ErrUnresolved reports that no resolver in a Chain could locate a capability.
	ErrUnresolved = errors.New("capability unresolved")

	errUnknownFailure = errors.New("unknown provider failure")
)

// Resolver locates the Provider for a capability name.
type Resolver interface {
	Name() string
	Resolve(name string) (Provider, error)
}

// ResolutionError lists every attempt made before giving up on a capability.
type ResolutionError struct {
	Capability string
	Attempts   []error
}

func (e *ResolutionError) Error() string {
	msgs := make([]string, 0, len(e.Attempts))
	for _, err := range e.Attempts {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("resolve capability %q: %s", e.Capability, strings.Join(msgs, "; "))
}

// Unwrap exposes ErrUnresolved followed by each attempt.
func (e *ResolutionError) Unwrap() []error {
	return append([]error{ErrUnresolved}, e.Attempts...)
}

// LocalResolver looks a capability up by its bare name in the catalog of the
// deployment unit the router was built in.
type LocalResolver struct {
	catalog *Catalog
}

// NewLocalResolver creates a LocalResolver. A nil catalog resolves nothing.
func NewLocalResolver(catalog *Catalog) *LocalResolver {
	return &LocalResolver{catalog: catalog}
}

// Name identifies the strategy in errors and logs.
func (*LocalResolver) Name() string { return "local" }

// Resolve builds the provider registered under name.
func (l *LocalResolver) Resolve(name string) (Provider, error) {
	return build(l.Name(), l.catalog, name)
}

// QualifiedResolver looks a capability up by its fully-qualified name in the
// catalog of a parent process that embeds the router.
type QualifiedResolver struct {
	catalog   *Catalog
	namespace string
}

// NewQualifiedResolver creates a QualifiedResolver rooted at namespace.
func NewQualifiedResolver(catalog *Catalog, namespace string) *QualifiedResolver {
	return &QualifiedResolver{catalog: catalog, namespace: namespace}
}

// Name identifies the strategy in errors and logs.
func (*QualifiedResolver) Name() string { return "embedded" }

// Resolve builds the provider registered under namespace.name.
func (q *QualifiedResolver) Resolve(name string) (Provider, error) {
	return build(q.Name(), q.catalog, Qualify(q.namespace, name))
}

func build(strategy string, catalog *Catalog, key string) (Provider, error) {
	factory, err := catalog.Lookup(key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", strategy, err)
	}
	provider, err := factory()
	if err != nil {
		return nil, fmt.Errorf("%s: build %q: %w", strategy, key, err)
	}
	if provider == nil {
		return nil, fmt.Errorf("%s: factory for %q returned nil provider", strategy, key)
	}
	return provider, nil
}

// Chain tries resolvers in order and returns the first provider found.
type Chain struct {
	resolvers []Resolver
}

// NewChain creates a Chain. Resolvers are tried in the given order.
func NewChain(resolvers ...Resolver) *Chain {
	return &Chain{resolvers: resolvers}
}

// Name identifies the strategy in errors and logs.
func (*Chain) Name() string { return "chain" }

// Resolve walks the chain. A resolver that fails with anything other than
// ErrNotFound stops the walk; exhausting the chain yields a *ResolutionError.
func (c *Chain) Resolve(name string) (Provider, error) {
	var attempts []error
	for _, r := range c.resolvers {
		provider, err := r.Resolve(name)
		if err == nil {
			return provider, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("resolve capability %q: %w", name, err)
		}
		attempts = append(attempts, err)
	}
	if len(attempts) == 0 {
		attempts = append(attempts, errors.New("no resolvers configured"))
	}
	return nil, &ResolutionError{Capability: name, Attempts: attempts}
}
