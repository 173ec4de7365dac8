package headless

import (
	"context"
	"errors"
	"fmt"

	"github.com/aifixr/feed-gateway/internal/fetcher"
)

// ErrDisabled is returned by Noop for every fetch.
var ErrDisabled = errors.New("headless fetcher disabled")

// Noop implements fetcher.Fetcher but always fails. It stands in for the
// chromedp fetcher when headless.enabled is false.
type Noop struct{}

// NewNoop creates a new Noop fetcher.
func NewNoop() *Noop {
	return &Noop{}
}

// Fetch returns ErrDisabled.
func (Noop) Fetch(_ context.Context, request fetcher.Request) (fetcher.Response, error) {
	return fetcher.Response{}, fmt.Errorf("fetch %s: %w", request.URL, ErrDisabled)
}
