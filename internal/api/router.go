package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/aifixr/feed-gateway/internal/metrics"
	"github.com/aifixr/feed-gateway/internal/tracing"
)

// Operational endpoint paths installed by NewRouter.
const (
	HealthPath  = "/healthz"
	ReadyPath   = "/readyz"
	MetricsPath = "/metrics"
)

// IsReservedPath reports whether path is one of the operational endpoints.
func IsReservedPath(path string) bool {
	switch path {
	case HealthPath, ReadyPath, MetricsPath:
		return true
	}
	return false
}

// Middleware is the chi middleware signature.
type Middleware = func(http.Handler) http.Handler

// NewRouter returns a chi.Router with request ID, recovery, logging and
// metrics middleware plus the operational endpoints. Extra middleware runs
// after the built-in chain and must be supplied here because chi rejects
// Use calls once routes exist.
func NewRouter(logger *zap.Logger, extra ...Middleware) chi.Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(tracing.Middleware)
	r.Use(Recover(logger))
	r.Use(Logging(logger))
	r.Use(metrics.Middleware)
	for _, mw := range extra {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Get(HealthPath, healthz)
	r.Get(ReadyPath, readyz)
	r.Method(http.MethodGet, MetricsPath, metrics.Handler())
	return r
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func readyz(w http.ResponseWriter, _ *http.Request) {
	// Capabilities are resolved before the listener opens, so serving implies ready.
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
