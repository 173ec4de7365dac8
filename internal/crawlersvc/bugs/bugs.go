// Package bugs scrapes the Bugs Music real-time chart.
package bugs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/aifixr/feed-gateway/internal/capability"
	"github.com/aifixr/feed-gateway/internal/fetcher"
)

// ErrChartNotFound reports a page without the chart table, usually because
// the upstream markup changed or the request was served a block page.
var ErrChartNotFound = errors.New("bugs chart table not found")

// ChartEntry is one ranked track.
type ChartEntry struct {
	Rank   int    `json:"rank"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
}

// Provider fetches and parses the chart on every Crawl.
type Provider struct {
	url     string
	fetcher fetcher.Fetcher
	logger  *zap.Logger
}

// New creates a Provider for the chart at url.
func New(url string, f fetcher.Fetcher, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{url: url, fetcher: f, logger: logger}
}

// Crawl implements capability.Provider.
func (p *Provider) Crawl(ctx context.Context) ([]capability.Record, error) {
	resp, err := p.fetcher.Fetch(ctx, fetcher.Request{URL: p.url})
	if err != nil {
		return nil, fmt.Errorf("fetch bugs chart: %w", err)
	}
	entries, err := Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, err
	}
	p.logger.Debug("bugs chart parsed",
		zap.Int("entries", len(entries)),
		zap.Duration("fetch_duration", resp.Duration),
	)
	records := make([]capability.Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, e)
	}
	return records, nil
}

// Parse extracts chart rows from a Bugs chart page.
func Parse(r io.Reader) ([]ChartEntry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse bugs chart: %w", err)
	}
	table := doc.Find("table.byChart").First()
	if table.Length() == 0 {
		return nil, ErrChartNotFound
	}

	entries := []ChartEntry{}
	table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		title := text(row.Find("p.title a").First())
		if title == "" {
			title = text(row.Find("p.title").First())
		}
		if title == "" {
			return
		}
		rank, convErr := strconv.Atoi(text(row.Find("div.ranking strong").First()))
		if convErr != nil {
			rank = len(entries) + 1
		}
		entries = append(entries, ChartEntry{
			Rank:   rank,
			Title:  title,
			Artist: text(row.Find("p.artist a").First()),
			Album:  text(row.Find("a.album").First()),
		})
	})
	return entries, nil
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
