// Package router exposes a set of capabilities as HTTP routes. A Router only
// knows router-relative paths, so the same instance serves standalone at "/"
// or mounted under any gateway prefix.
package router

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/aifixr/feed-gateway/internal/api"
	"github.com/aifixr/feed-gateway/internal/capability"
	"github.com/aifixr/feed-gateway/internal/envelope"
	"github.com/aifixr/feed-gateway/internal/metrics"
)

// Descriptor binds a router-relative path to a capability name.
type Descriptor struct {
	Path       string
	Capability string
}

// Option customizes a Router.
type Option func(*Router)

// WithLogger sets the logger used for resolution and provider failures.
func WithLogger(logger *zap.Logger) Option {
	return func(rt *Router) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// WithTracerProvider sets the provider used for capability spans. The global
// provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(rt *Router) {
		if tp != nil {
			rt.tracer = tp.Tracer(tracerName)
		}
	}
}

const tracerName = "github.com/aifixr/feed-gateway/internal/router"

// Router serves one handler per capability plus a root status endpoint.
type Router struct {
	name     string
	title    string
	resolver capability.Resolver
	logger   *zap.Logger
	tracer   trace.Tracer

	routes []route
}

type route struct {
	desc Descriptor
	ref  *capability.Reference
}

// New creates a Router whose capabilities resolve through resolver.
func New(name, title string, resolver capability.Resolver, opts ...Option) *Router {
	rt := &Router{
		name:     name,
		title:    title,
		resolver: resolver,
		logger:   zap.NewNop(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(rt)
	}
	rt.logger = rt.logger.With(zap.String("router", name))
	return rt
}

// Name returns the router's registry name.
func (rt *Router) Name() string {
	return rt.name
}

// Title returns the message served by the root endpoint.
func (rt *Router) Title() string {
	return rt.title
}

// Handle serves capabilityName at path. It panics on a malformed or
// duplicate path, like chi does for bad patterns.
func (rt *Router) Handle(path, capabilityName string) *Router {
	if !strings.HasPrefix(path, "/") || path == "/" {
		panic(fmt.Sprintf("router %q: invalid capability path %q", rt.name, path))
	}
	for _, existing := range rt.routes {
		if existing.desc.Path == path {
			panic(fmt.Sprintf("router %q: duplicate capability path %q", rt.name, path))
		}
	}
	rt.routes = append(rt.routes, route{
		desc: Descriptor{Path: path, Capability: capabilityName},
		ref:  capability.NewReference(capabilityName, rt.resolver),
	})
	return rt
}

// Routes lists the capability routes in registration order.
func (rt *Router) Routes() []Descriptor {
	out := make([]Descriptor, 0, len(rt.routes))
	for _, r := range rt.routes {
		out = append(out, r.desc)
	}
	return out
}

// Resolve resolves every capability now. The returned error wraps
// capability.ErrUnresolved and names each capability that failed.
func (rt *Router) Resolve() error {
	var errs []error
	for _, r := range rt.routes {
		if _, err := r.ref.Provider(); err != nil {
			if !errors.Is(err, capability.ErrUnresolved) {
				err = fmt.Errorf("%w: %w", capability.ErrUnresolved, err)
			}
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("router %q: %w", rt.name, errors.Join(errs...))
}

// Register installs the root and capability routes on r.
func (rt *Router) Register(r chi.Router) {
	r.Get("/", rt.root)
	for _, rr := range rt.routes {
		r.Get(rr.desc.Path, rt.capabilityHandler(rr))
	}
}

// Handler returns a standalone chi router serving this Router.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	rt.Register(r)
	return r
}

func (rt *Router) root(w http.ResponseWriter, _ *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]string{
		"message": rt.title,
		"status":  "running",
	})
}

func (rt *Router) capabilityHandler(rr route) http.HandlerFunc {
	name := rr.desc.Capability
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := rt.tracer.Start(r.Context(), "capability "+name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("router.name", rt.name),
				attribute.String("capability.name", name),
			),
		)
		defer span.End()

		provider, err := rr.ref.Provider()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "capability unavailable")
			rt.logger.Error("capability unavailable",
				zap.String("capability", name),
				zap.String("request_id", api.RequestIDFromContext(r.Context())),
				zap.Error(err),
			)
			api.WriteError(w, http.StatusInternalServerError, fmt.Sprintf("capability %q unavailable", name))
			return
		}

		start := time.Now()
		res := capability.Invoke(ctx, provider)
		elapsed := time.Since(start)

		if res.OK() {
			span.SetAttributes(attribute.Int("capability.records", len(res.Records())))
			metrics.ObserveInvocation(name, metrics.OutcomeSuccess, len(res.Records()), elapsed)
		} else {
			span.RecordError(res.Err())
			span.SetStatus(codes.Error, "capability failed")
			metrics.ObserveInvocation(name, metrics.OutcomeFailure, 0, elapsed)
			rt.logger.Warn("capability failed",
				zap.String("capability", name),
				zap.Duration("elapsed", elapsed),
				zap.Error(res.Err()),
			)
		}
		api.WriteJSON(w, http.StatusOK, envelope.FromResult(res))
	}
}
