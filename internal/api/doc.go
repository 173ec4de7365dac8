// Package api holds the HTTP plumbing shared by the gateway and the standalone
// crawler service. Notable routes installed by NewRouter:
//   - GET /healthz and /readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//
// Capability routes and the gateway root are registered by the router and
// gateway packages on top of the returned chi.Router.
package api
