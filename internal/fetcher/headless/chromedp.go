// Package headless contains fetchers that execute JavaScript via browsers.
package headless

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"golang.org/x/sync/semaphore"

	"github.com/aifixr/feed-gateway/internal/fetcher"
)

// Name labels fetches made by this package in metrics and logs.
const Name = "headless"

const (
	defaultNavTimeout   = 45 * time.Second
	defaultWaitSelector = "body"
	settleDelay         = 500 * time.Millisecond
)

// Config controls the behavior of the headless fetcher.
type Config struct {
	// MaxParallel bounds concurrent browser tabs; zero means unbounded.
	MaxParallel       int
	UserAgent         string
	NavigationTimeout time.Duration
}

// Fetcher implements fetcher.Fetcher using chromedp and headless Chrome.
// Tabs share one browser process started on the first fetch.
type Fetcher struct {
	cfg         Config
	tabs        *semaphore.Weighted
	allocator   context.Context
	allocCancel context.CancelFunc
}

// NewChromedp creates a headless fetcher backed by chromedp.
func NewChromedp(cfg Config) (*Fetcher, error) {
	if cfg.MaxParallel < 0 {
		return nil, fmt.Errorf("max parallel must be >= 0")
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = defaultNavTimeout
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	f := &Fetcher{cfg: cfg, allocator: allocCtx, allocCancel: allocCancel}
	if cfg.MaxParallel > 0 {
		f.tabs = semaphore.NewWeighted(int64(cfg.MaxParallel))
	}
	return f, nil
}

// Close shuts the browser down.
func (f *Fetcher) Close() {
	f.allocCancel()
}

// Fetch navigates with a headless browser, waits for request.WaitSelector and
// returns the rendered DOM. Cancelling ctx aborts the browser tab.
func (f *Fetcher) Fetch(ctx context.Context, request fetcher.Request) (fetcher.Response, error) {
	if f.tabs != nil {
		if err := f.tabs.Acquire(ctx, 1); err != nil {
			return fetcher.Response{}, fmt.Errorf("wait for browser tab: %w", err)
		}
		defer f.tabs.Release(1)
	}

	tabCtx, closeTab := chromedp.NewContext(f.allocator)
	defer closeTab()
	stop := context.AfterFunc(ctx, closeTab)
	defer stop()
	tabCtx, cancel := context.WithTimeout(tabCtx, f.cfg.NavigationTimeout)
	defer cancel()

	var doc document
	chromedp.ListenTarget(tabCtx, doc.observe)

	start := time.Now()
	var html, location string
	err := chromedp.Run(tabCtx,
		f.prepareTab(request.Headers),
		chromedp.Navigate(request.URL),
		chromedp.WaitReady(waitSelector(request), chromedp.ByQuery),
		chromedp.Sleep(settleDelay),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return fetcher.Response{}, fmt.Errorf("headless fetch %s canceled: %w", request.URL, ctx.Err())
		}
		return fetcher.Response{}, fmt.Errorf("chromedp run %s: %w", request.URL, err)
	}

	resp := doc.response(request.URL, location)
	resp.Body = []byte(html)
	resp.Duration = time.Since(start)
	return resp, nil
}

func waitSelector(request fetcher.Request) string {
	if request.WaitSelector != "" {
		return request.WaitSelector
	}
	return defaultWaitSelector
}

// prepareTab enables network events and applies the user agent and extra
// request headers before navigation.
func (f *Fetcher) prepareTab(headers http.Header) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if f.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(f.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		if len(headers) > 0 {
			if err := network.SetExtraHTTPHeaders(networkHeaders(headers)).Do(ctx); err != nil {
				return fmt.Errorf("set extra headers: %w", err)
			}
		}
		return nil
	})
}

// networkHeaders folds repeated values into one comma-separated value, the
// form DevTools expects.
func networkHeaders(h http.Header) network.Headers {
	out := make(network.Headers, len(h))
	for key, values := range h {
		if len(values) > 0 {
			out[key] = strings.Join(values, ", ")
		}
	}
	return out
}

// document records the status, headers and URL of the last top-level
// document response seen by a tab.
type document struct {
	mu      sync.Mutex
	status  int
	headers http.Header
	url     string
}

func (d *document) observe(ev any) {
	e, ok := ev.(*network.EventResponseReceived)
	if !ok || e.Type != network.ResourceTypeDocument || e.Response == nil {
		return
	}
	headers := make(http.Header, len(e.Response.Headers))
	for key, value := range e.Response.Headers {
		headers.Add(key, fmt.Sprint(value))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = int(e.Response.Status)
	d.headers = headers
	d.url = e.Response.URL
}

// response builds a Response from the observed document. A page that
// produced no document event is reported as a 200 at the final location.
func (d *document) response(requestURL, location string) fetcher.Response {
	d.mu.Lock()
	defer d.mu.Unlock()

	resp := fetcher.Response{
		URL:          d.url,
		StatusCode:   d.status,
		Headers:      d.headers.Clone(),
		UsedHeadless: true,
	}
	if resp.URL == "" {
		resp.URL = location
	}
	if resp.URL == "" {
		resp.URL = requestURL
	}
	if resp.StatusCode == 0 {
		resp.StatusCode = http.StatusOK
	}
	if resp.Headers == nil {
		resp.Headers = http.Header{}
	}
	return resp
}
