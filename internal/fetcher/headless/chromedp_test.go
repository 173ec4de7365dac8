package headless

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"

	"github.com/aifixr/feed-gateway/internal/fetcher"
)

func TestNewChromedpValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewChromedp(Config{MaxParallel: -1}); err == nil {
		t.Fatal("expected error for negative max parallel")
	}

	f, err := NewChromedp(Config{MaxParallel: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()
	if f.tabs == nil {
		t.Fatal("expected a tab semaphore")
	}
	if f.cfg.NavigationTimeout != defaultNavTimeout {
		t.Fatalf("expected default navigation timeout, got %v", f.cfg.NavigationTimeout)
	}

	unbounded, err := NewChromedp(Config{NavigationTimeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer unbounded.Close()
	if unbounded.tabs != nil {
		t.Fatal("expected no semaphore when max parallel is zero")
	}
	if unbounded.cfg.NavigationTimeout != time.Second {
		t.Fatalf("expected override to be kept, got %v", unbounded.cfg.NavigationTimeout)
	}
}

func TestNetworkHeaders(t *testing.T) {
	t.Parallel()

	got := networkHeaders(http.Header{"Accept-Language": {"ko", "en"}, "X-Empty": {}})
	if got["Accept-Language"] != "ko, en" {
		t.Fatalf("expected joined values, got %v", got["Accept-Language"])
	}
	if _, ok := got["X-Empty"]; ok {
		t.Fatal("expected empty header to be dropped")
	}
}

func TestDocumentObserve(t *testing.T) {
	t.Parallel()

	var doc document
	doc.observe(&network.EventResponseReceived{
		Type:     network.ResourceTypeScript,
		Response: &network.Response{Status: 500, URL: "https://example.com/app.js"},
	})
	doc.observe(&network.EventResponseReceived{
		Type: network.ResourceTypeDocument,
		Response: &network.Response{
			Status:  204,
			URL:     "https://example.com/rendered",
			Headers: network.Headers{"X-Request-ID": "abc"},
		},
	})

	resp := doc.response("https://req", "https://final")
	if resp.StatusCode != 204 || resp.URL != "https://example.com/rendered" {
		t.Fatalf("unexpected response: status=%d url=%s", resp.StatusCode, resp.URL)
	}
	if resp.Headers.Get("X-Request-ID") != "abc" || !resp.UsedHeadless {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestDocumentFallbacks(t *testing.T) {
	t.Parallel()

	var doc document
	resp := doc.response("https://req", "https://final")
	if resp.StatusCode != http.StatusOK || resp.URL != "https://final" || resp.Headers == nil {
		t.Fatalf("expected location fallback, got %+v", resp)
	}
	if resp := doc.response("https://req", ""); resp.URL != "https://req" {
		t.Fatalf("expected request URL fallback, got %s", resp.URL)
	}
}

func TestNoopFetcherError(t *testing.T) {
	t.Parallel()

	_, err := NewNoop().Fetch(context.Background(), fetcher.Request{URL: "https://prod.danawa.com/list/"})
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled from noop fetcher, got %v", err)
	}
}

func TestWaitSelectorDefault(t *testing.T) {
	t.Parallel()

	if got := waitSelector(fetcher.Request{}); got != "body" {
		t.Fatalf("expected body default, got %q", got)
	}
	if got := waitSelector(fetcher.Request{WaitSelector: "ul.product_list"}); got != "ul.product_list" {
		t.Fatalf("expected explicit selector, got %q", got)
	}
}

func TestFetchWaitsForTabAndHonorsContext(t *testing.T) {
	t.Parallel()

	f, err := NewChromedp(Config{MaxParallel: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()
	if !f.tabs.TryAcquire(1) {
		t.Fatal("expected the only tab to be free")
	}
	defer f.tabs.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.Fetch(ctx, fetcher.Request{URL: "https://prod.danawa.com/list/"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline while waiting for a tab, got %v", err)
	}
}
