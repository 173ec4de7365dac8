// Package fetcher defines the page retrieval contract shared by the colly and
// headless implementations.
package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aifixr/feed-gateway/internal/metrics"
)

// Request captures everything needed to fetch a page.
type Request struct {
	URL     string
	Headers http.Header
	// WaitSelector is the CSS selector a headless fetch waits for before
	// snapshotting the DOM. Plain HTTP fetchers ignore it.
	WaitSelector string
}

// Response is the result returned by a Fetcher implementation.
type Response struct {
	URL          string
	StatusCode   int
	Headers      http.Header
	Body         []byte
	Duration     time.Duration
	UsedHeadless bool
}

// Fetcher retrieves one page.
type Fetcher interface {
	Fetch(ctx context.Context, request Request) (Response, error)
}

// StatusError reports an upstream response outside the 2xx range.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

// CheckStatus returns a *StatusError unless resp carries a 2xx status.
func CheckStatus(resp Response) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: resp.URL, StatusCode: resp.StatusCode}
	}
	return nil
}

// Instrument wraps f so every fetch is counted and traced under name.
func Instrument(name string, f Fetcher) Fetcher {
	return &instrumented{name: name, next: f, tracer: otel.Tracer("github.com/aifixr/feed-gateway/internal/fetcher")}
}

type instrumented struct {
	name   string
	next   Fetcher
	tracer trace.Tracer
}

func (i *instrumented) Fetch(ctx context.Context, request Request) (Response, error) {
	ctx, span := i.tracer.Start(ctx, "fetch "+i.name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("url.full", request.URL)),
	)
	defer span.End()

	resp, err := i.next.Fetch(ctx, request)
	if err == nil {
		err = CheckStatus(resp)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		metrics.ObserveFetch(request.URL, i.name, metrics.OutcomeFailure, 0)
		return resp, err
	}
	metrics.ObserveFetch(request.URL, i.name, metrics.OutcomeSuccess, len(resp.Body))
	return resp, nil
}
