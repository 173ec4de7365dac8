package danawa

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aifixr/feed-gateway/internal/fetcher"
)

const listingHTML = `<html><body>
<div class="main_prodlist">
<ul class="product_list">
  <li class="prod_item prod_layer" id="productItem1">
    <div class="prod_info">
      <p class="prod_name"><a href="https://prod.danawa.com/info/?pcode=1">  Galaxy Book4 Pro  </a></p>
    </div>
    <div class="prod_pricelist"><ul><li><p class="price_sect"><a href="#"><strong>1,899,000</strong>원</a></p></li></ul></div>
  </li>
  <li class="prod_item prod_ad_item">
    <p class="prod_name"><a href="/ad">Sponsored laptop</a></p>
    <p class="price_sect"><a href="#"><strong>999,000</strong></a></p>
  </li>
  <li class="prod_item" id="productItem2">
    <p class="prod_name"><a href="/info/?pcode=2">Gram 16</a></p>
    <p class="price_sect"><a href="#"><strong>가격비교예정</strong></a></p>
  </li>
  <li class="prod_item"><p class="memory_sect">no name</p></li>
</ul>
</div>
</body></html>`

type fakeFetcher struct {
	body []byte
	url  string
	err  error
	seen fetcher.Request
}

func (f *fakeFetcher) Fetch(_ context.Context, req fetcher.Request) (fetcher.Response, error) {
	f.seen = req
	if f.err != nil {
		return fetcher.Response{}, f.err
	}
	return fetcher.Response{URL: f.url, StatusCode: http.StatusOK, Body: f.body, UsedHeadless: true}, nil
}

func TestParse(t *testing.T) {
	t.Parallel()

	products, err := Parse(strings.NewReader(listingHTML), "https://prod.danawa.com/list/?cate=112758")
	require.NoError(t, err)
	assert.Equal(t, []Product{
		{Name: "Galaxy Book4 Pro", Price: 1899000, PriceText: "1,899,000", URL: "https://prod.danawa.com/info/?pcode=1"},
		{Name: "Gram 16", Price: 0, PriceText: "가격비교예정", URL: "https://prod.danawa.com/info/?pcode=2"},
	}, products)
}

func TestParse_MissingList(t *testing.T) {
	t.Parallel()

	_, err := Parse(strings.NewReader(`<html><body>loading</body></html>`), "")
	assert.ErrorIs(t, err, ErrListNotFound)
}

func TestParsePrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
	}{
		{"1,234,000", 1234000},
		{"52,900원", 52900},
		{"", 0},
		{"일시품절", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parsePrice(tt.in), tt.in)
	}
}

func TestProvider_Crawl(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{body: []byte(listingHTML), url: "https://prod.danawa.com/list/?cate=112758"}
	records, err := New("https://prod.danawa.com/list/?cate=112758", f, nil).Crawl(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ListSelector, f.seen.WaitSelector)
	require.Len(t, records, 2)
	assert.Equal(t, "Gram 16", records[1].(Product).Name)
}

func TestProvider_CrawlFallsBackToRequestURL(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{body: []byte(listingHTML)}
	records, err := New("https://mirror.example.test/list/", f, nil).Crawl(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "https://mirror.example.test/info/?pcode=2", records[1].(Product).URL)
}

func TestProvider_CrawlFetchError(t *testing.T) {
	t.Parallel()

	boom := errors.New("headless fetcher disabled")
	_, err := New("u", &fakeFetcher{err: boom}, nil).Crawl(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "fetch danawa listing")
}
