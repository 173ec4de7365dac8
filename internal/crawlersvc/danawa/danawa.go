// Package danawa scrapes product names and prices from a Danawa category listing.
package danawa

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/aifixr/feed-gateway/internal/capability"
	"github.com/aifixr/feed-gateway/internal/fetcher"
)

// ListSelector is rendered by the listing page's scripts; headless fetches wait for it.
const ListSelector = "ul.product_list"

// ErrListNotFound reports a page without the product list.
var ErrListNotFound = errors.New("danawa product list not found")

// Product is one listed item. Price is zero when the listing shows no price.
type Product struct {
	Name      string `json:"name"`
	Price     int    `json:"price"`
	PriceText string `json:"price_text"`
	URL       string `json:"url"`
}

// Provider fetches and parses the listing on every Crawl.
type Provider struct {
	url     string
	fetcher fetcher.Fetcher
	logger  *zap.Logger
}

// New creates a Provider for the listing at url.
func New(url string, f fetcher.Fetcher, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{url: url, fetcher: f, logger: logger}
}

// Crawl implements capability.Provider.
func (p *Provider) Crawl(ctx context.Context) ([]capability.Record, error) {
	resp, err := p.fetcher.Fetch(ctx, fetcher.Request{URL: p.url, WaitSelector: ListSelector})
	if err != nil {
		return nil, fmt.Errorf("fetch danawa listing: %w", err)
	}
	base := resp.URL
	if base == "" {
		base = p.url
	}
	products, err := Parse(bytes.NewReader(resp.Body), base)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("danawa listing parsed",
		zap.Int("products", len(products)),
		zap.Bool("headless", resp.UsedHeadless),
		zap.Duration("fetch_duration", resp.Duration),
	)
	records := make([]capability.Record, 0, len(products))
	for _, prod := range products {
		records = append(records, prod)
	}
	return records, nil
}

// Parse extracts products from a listing page. Relative links resolve
// against baseURL. Advertisement entries are skipped.
func Parse(r io.Reader, baseURL string) ([]Product, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse danawa listing: %w", err)
	}
	list := doc.Find(ListSelector).First()
	if list.Length() == 0 {
		return nil, ErrListNotFound
	}
	base, _ := url.Parse(baseURL)

	products := []Product{}
	list.Find("li.prod_item").Each(func(_ int, item *goquery.Selection) {
		if item.HasClass("prod_ad_item") {
			return
		}
		link := item.Find("p.prod_name a").First()
		name := text(link)
		if name == "" {
			return
		}
		priceText := text(item.Find("p.price_sect a strong").First())
		products = append(products, Product{
			Name:      name,
			Price:     parsePrice(priceText),
			PriceText: priceText,
			URL:       resolve(base, link.AttrOr("href", "")),
		})
	})
	return products, nil
}

// parsePrice keeps the digits of a price such as "1,234,000".
func parsePrice(s string) int {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
