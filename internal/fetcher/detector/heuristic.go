// Package detector decides when a plain HTTP response needs to be rendered
// by a headless browser instead.
package detector

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/aifixr/feed-gateway/internal/fetcher"
)

const defaultBodyLengthThreshold = 2048

// Heuristic implements a handful of rule-based promotions.
type Heuristic struct {
	BodyLengthThreshold int
}

// NewHeuristic creates a new detector. A zero threshold selects 2 KiB.
func NewHeuristic(threshold int) *Heuristic {
	if threshold <= 0 {
		threshold = defaultBodyLengthThreshold
	}
	return &Heuristic{BodyLengthThreshold: threshold}
}

var spaMarkers = [][]byte{
	[]byte("__next"),
	[]byte(`id="root"`),
	[]byte(`id="app"`),
	[]byte("data-reactroot"),
}

// ShouldPromote reports whether resp looks like a client-rendered shell.
func (h *Heuristic) ShouldPromote(resp fetcher.Response) bool {
	if resp.StatusCode != http.StatusOK || resp.UsedHeadless {
		return false
	}
	body := resp.Body
	if len(body) == 0 {
		return true
	}
	if len(body) < h.BodyLengthThreshold && scriptDensityHigh(body) {
		return true
	}
	for _, marker := range spaMarkers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return false
}

// scriptDensityHigh reports whether script elements cover at least a quarter
// of the document.
func scriptDensityHigh(body []byte) bool {
	lower := strings.ToLower(string(body))
	total := len(lower)
	if total == 0 {
		return false
	}

	const (
		openTag  = "<script"
		closeTag = "</script>"
	)
	coverage := 0
	pos := 0
	for {
		rel := strings.Index(lower[pos:], openTag)
		if rel == -1 {
			break
		}
		start := pos + rel

		tagClose := strings.IndexByte(lower[start:], '>')
		if tagClose == -1 {
			coverage += total - start
			break
		}
		contentStart := start + tagClose + 1

		next := total
		if end := strings.Index(lower[contentStart:], closeTag); end != -1 {
			next = contentStart + end + len(closeTag)
		}
		coverage += next - start
		pos = next
	}
	return coverage*100/total >= 25
}
