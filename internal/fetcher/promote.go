package fetcher

import (
	"context"

	"go.uber.org/zap"
)

// Detector decides whether a plain response must be re-fetched headless.
type Detector interface {
	ShouldPromote(resp Response) bool
}

// Promote fetches with plain first and retries through headless when
// detector flags the response as a client-rendered shell. A failed headless
// retry returns the headless error.
func Promote(plain, headless Fetcher, detector Detector, logger *zap.Logger) Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &promoting{plain: plain, headless: headless, detector: detector, logger: logger}
}

type promoting struct {
	plain    Fetcher
	headless Fetcher
	detector Detector
	logger   *zap.Logger
}

func (p *promoting) Fetch(ctx context.Context, request Request) (Response, error) {
	resp, err := p.plain.Fetch(ctx, request)
	if err != nil || !p.detector.ShouldPromote(resp) {
		return resp, err
	}
	p.logger.Debug("promoting fetch to headless", zap.String("url", request.URL))
	return p.headless.Fetch(ctx, request)
}
