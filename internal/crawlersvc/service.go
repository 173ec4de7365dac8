// Package crawlersvc is the crawler deployment unit. It owns the Bugs and
// Danawa providers and the router that exposes them, and runs either as its
// own process or embedded in the gateway.
package crawlersvc

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/aifixr/feed-gateway/internal/capability"
	"github.com/aifixr/feed-gateway/internal/config"
	"github.com/aifixr/feed-gateway/internal/crawlersvc/bugs"
	"github.com/aifixr/feed-gateway/internal/crawlersvc/danawa"
	"github.com/aifixr/feed-gateway/internal/fetcher"
	collyfetcher "github.com/aifixr/feed-gateway/internal/fetcher/colly"
	"github.com/aifixr/feed-gateway/internal/fetcher/detector"
	headlessfetcher "github.com/aifixr/feed-gateway/internal/fetcher/headless"
	"github.com/aifixr/feed-gateway/internal/router"
)

const (
	// Name is the router's registry name in the gateway.
	Name = "crawler"
	// Title is served by the router's root endpoint.
	Title = "Crawler Service"
	// Namespace qualifies this unit's capabilities inside a parent catalog.
	Namespace = "services.crawlerservice"

	CapabilityBugsMusic = "bugsmusic"
	CapabilityDanawa    = "danawa"
)

// Option customizes a Service.
type Option func(*Service)

// WithPlainFetcher replaces the colly fetcher.
func WithPlainFetcher(f fetcher.Fetcher) Option {
	return func(s *Service) { s.plain = f }
}

// WithHeadlessFetcher replaces the chromedp fetcher.
func WithHeadlessFetcher(f fetcher.Fetcher) Option {
	return func(s *Service) { s.headless = f }
}

// Service owns the unit's fetchers and capability catalog.
type Service struct {
	cfg      config.Config
	logger   *zap.Logger
	plain    fetcher.Fetcher
	headless fetcher.Fetcher
	closers  []func()
	catalog  *capability.Catalog
}

// New builds the fetchers described by cfg and registers the providers
// under their bare capability names.
func New(cfg config.Config, logger *zap.Logger, opts ...Option) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{cfg: cfg, logger: logger.Named("crawlersvc")}
	for _, opt := range opts {
		opt(s)
	}

	if s.plain == nil {
		s.plain = fetcher.Instrument(collyfetcher.Name, collyfetcher.New(collyfetcher.Config{
			UserAgent: cfg.HTTP.UserAgent,
			Timeout:   cfg.HTTPTimeout(),
		}))
	}
	promote := cfg.Headless.Enabled && cfg.Headless.AutoPromote
	if s.headless == nil && (cfg.Sources.Danawa.Headless || promote) {
		f, err := s.newHeadless()
		if err != nil {
			return nil, err
		}
		s.headless = f
	}
	if promote {
		s.plain = fetcher.Promote(s.plain, s.headless, detector.NewHeuristic(0), s.logger)
	}

	s.catalog = capability.NewCatalog()
	if err := s.catalog.Register(CapabilityBugsMusic, s.bugsFactory); err != nil {
		return nil, fmt.Errorf("register %s: %w", CapabilityBugsMusic, err)
	}
	if err := s.catalog.Register(CapabilityDanawa, s.danawaFactory); err != nil {
		return nil, fmt.Errorf("register %s: %w", CapabilityDanawa, err)
	}
	return s, nil
}

func (s *Service) newHeadless() (fetcher.Fetcher, error) {
	if !s.cfg.Headless.Enabled {
		s.logger.Warn("headless rendering disabled; danawa requests will fail",
			zap.String("capability", CapabilityDanawa))
		return fetcher.Instrument(headlessfetcher.Name, headlessfetcher.NewNoop()), nil
	}
	f, err := headlessfetcher.NewChromedp(headlessfetcher.Config{
		MaxParallel:       s.cfg.Headless.MaxParallel,
		UserAgent:         s.cfg.HTTP.UserAgent,
		NavigationTimeout: s.cfg.NavTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("init headless fetcher: %w", err)
	}
	s.closers = append(s.closers, f.Close)
	return fetcher.Instrument(headlessfetcher.Name, f), nil
}

func (s *Service) bugsFactory() (capability.Provider, error) {
	return bugs.New(s.cfg.Sources.Bugs.URL, s.plain, s.logger.Named(CapabilityBugsMusic)), nil
}

func (s *Service) danawaFactory() (capability.Provider, error) {
	f := s.plain
	if s.cfg.Sources.Danawa.Headless {
		f = s.headless
	}
	return danawa.New(s.cfg.Sources.Danawa.URL, f, s.logger.Named(CapabilityDanawa)), nil
}

// Catalog returns the unit's providers keyed by bare capability name.
func (s *Service) Catalog() *capability.Catalog {
	return s.catalog
}

// Close releases browser resources.
func (s *Service) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// NewRouter builds the crawler router. Capabilities resolve from local first
// and then from parent under Namespace; either catalog may be nil.
func NewRouter(local, parent *capability.Catalog, logger *zap.Logger) *router.Router {
	chain := capability.NewChain(
		capability.NewLocalResolver(local),
		capability.NewQualifiedResolver(parent, Namespace),
	)
	return router.New(Name, Title, chain, router.WithLogger(logger)).
		Handle("/"+CapabilityBugsMusic, CapabilityBugsMusic).
		Handle("/"+CapabilityDanawa, CapabilityDanawa)
}
