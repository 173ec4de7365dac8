// Package gateway aggregates capability routers behind one HTTP listener.
// Each router is mounted under its own path prefix and shares a single
// cross-origin policy and root endpoint.
package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/aifixr/feed-gateway/internal/api"
	"github.com/aifixr/feed-gateway/internal/capability"
	"github.com/aifixr/feed-gateway/internal/config"
	"github.com/aifixr/feed-gateway/internal/metrics"
	"github.com/aifixr/feed-gateway/internal/router"
)

// DefaultMessage is served at the gateway root when Options.Message is empty.
const DefaultMessage = "Gateway API service"

// ErrInvalidMount reports a prefix that cannot be mounted.
var ErrInvalidMount = errors.New("invalid mount")

// Options configures a Gateway.
type Options struct {
	// Message is the gateway root payload.
	Message string
	// Mounts maps router name to path prefix. Routers without an entry are
	// mounted at "/<name>".
	Mounts map[string]string
	CORS   config.CORSConfig
}

// OptionsFromConfig maps loaded configuration onto Options.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Message: cfg.Gateway.Message,
		Mounts:  cfg.Gateway.Mounts,
		CORS:    cfg.CORS,
	}
}

// Mount describes one router mounted by the gateway.
type Mount struct {
	Name   string
	Prefix string
	Title  string
	Routes []router.Descriptor
}

// Gateway serves every registered router under its prefix.
type Gateway struct {
	message string
	mounts  []Mount
	handler http.Handler
}

// New builds each registered router against parent, resolves all of their
// capabilities and mounts them. Any resolution failure is returned wrapped
// around capability.ErrUnresolved so the caller can refuse to start.
func New(opts Options, registry *Registry, parent *capability.Catalog, logger *zap.Logger) (*Gateway, error) {
	if registry == nil {
		return nil, errors.New("gateway: nil registry")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("gateway")

	for name := range opts.Mounts {
		if _, ok := registry.factory(name); !ok {
			return nil, fmt.Errorf("gateway: mount %q: %w: no such router", name, ErrInvalidMount)
		}
	}

	g := &Gateway{message: opts.Message}
	if g.message == "" {
		g.message = DefaultMessage
	}

	routers := make([]*router.Router, 0, len(registry.Names()))
	seen := make(map[string]string)
	for _, name := range registry.Names() {
		prefix, ok := opts.Mounts[name]
		if !ok {
			prefix = "/" + name
		}
		prefix = strings.TrimSuffix(prefix, "/")
		if err := validatePrefix(prefix); err != nil {
			return nil, fmt.Errorf("gateway: mount %q: %w", name, err)
		}
		if other, dup := seen[prefix]; dup {
			return nil, fmt.Errorf("gateway: mount %q: %w: prefix %q already used by %q", name, ErrInvalidMount, prefix, other)
		}
		seen[prefix] = name

		factory, _ := registry.factory(name)
		rt := factory(parent)
		if rt == nil {
			return nil, fmt.Errorf("gateway: router %q: factory returned nil", name)
		}
		if err := rt.Resolve(); err != nil {
			return nil, fmt.Errorf("gateway: %w", err)
		}

		routers = append(routers, rt)
		g.mounts = append(g.mounts, Mount{
			Name:   name,
			Prefix: prefix,
			Title:  rt.Title(),
			Routes: rt.Routes(),
		})
	}

	logCORSPolicy(logger, opts.CORS)
	r := api.NewRouter(logger, cors.Handler(corsOptions(opts.CORS)))
	r.Get("/", g.root)
	for i, rt := range routers {
		r.Route(g.mounts[i].Prefix, rt.Register)
		logger.Info("router mounted",
			zap.String("router", g.mounts[i].Name),
			zap.String("prefix", g.mounts[i].Prefix),
			zap.Int("capabilities", len(g.mounts[i].Routes)),
		)
	}
	g.handler = r
	metrics.SetMountedRouters(len(g.mounts))
	return g, nil
}

// Handler returns the gateway's HTTP handler.
func (g *Gateway) Handler() http.Handler {
	return g.handler
}

// Mounts lists mounted routers in registration order.
func (g *Gateway) Mounts() []Mount {
	out := make([]Mount, len(g.mounts))
	copy(out, g.mounts)
	return out
}

func (g *Gateway) root(w http.ResponseWriter, _ *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]string{"message": g.message})
}

func validatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("%w: the root prefix is reserved for the gateway", ErrInvalidMount)
	}
	if !strings.HasPrefix(prefix, "/") {
		return fmt.Errorf("%w: prefix %q must start with /", ErrInvalidMount, prefix)
	}
	if strings.ContainsAny(prefix, "{}*") {
		return fmt.Errorf("%w: prefix %q must be a literal path", ErrInvalidMount, prefix)
	}
	if api.IsReservedPath(prefix) {
		return fmt.Errorf("%w: prefix %q is an operational endpoint", ErrInvalidMount, prefix)
	}
	return nil
}

func corsOptions(c config.CORSConfig) cors.Options {
	return cors.Options{
		AllowedOrigins:   c.AllowedOrigins,
		AllowedMethods:   c.AllowedMethods,
		AllowedHeaders:   c.AllowedHeaders,
		ExposedHeaders:   []string{api.RequestIDHeader},
		AllowCredentials: c.AllowCredentials,
		MaxAge:           c.MaxAgeSeconds,
	}
}

func logCORSPolicy(logger *zap.Logger, c config.CORSConfig) {
	methods := append([]string(nil), c.AllowedMethods...)
	sort.Strings(methods)
	fields := []zap.Field{
		zap.Strings("origins", c.AllowedOrigins),
		zap.Strings("methods", methods),
		zap.Bool("credentials", c.AllowCredentials),
	}
	if c.AllowsAnyOrigin() {
		logger.Warn("cors admits every origin", fields...)
		return
	}
	logger.Info("cors policy", fields...)
}
