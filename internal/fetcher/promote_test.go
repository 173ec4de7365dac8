package fetcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	resp  Response
	err   error
	calls int
}

func (c *countingFetcher) Fetch(context.Context, Request) (Response, error) {
	c.calls++
	return c.resp, c.err
}

type detectorFunc func(Response) bool

func (f detectorFunc) ShouldPromote(resp Response) bool { return f(resp) }

func TestPromote(t *testing.T) {
	t.Parallel()

	emptyBody := detectorFunc(func(r Response) bool { return len(r.Body) == 0 })

	t.Run("keeps plain response", func(t *testing.T) {
		t.Parallel()
		plain := &countingFetcher{resp: Response{StatusCode: 200, Body: []byte("ok")}}
		headless := &countingFetcher{}

		resp, err := Promote(plain, headless, emptyBody, nil).Fetch(context.Background(), Request{URL: "https://a.test"})
		require.NoError(t, err)
		assert.Equal(t, "ok", string(resp.Body))
		assert.Zero(t, headless.calls)
	})

	t.Run("promotes shell", func(t *testing.T) {
		t.Parallel()
		plain := &countingFetcher{resp: Response{StatusCode: 200}}
		headless := &countingFetcher{resp: Response{StatusCode: 200, Body: []byte("rendered"), UsedHeadless: true}}

		resp, err := Promote(plain, headless, emptyBody, nil).Fetch(context.Background(), Request{URL: "https://a.test"})
		require.NoError(t, err)
		assert.True(t, resp.UsedHeadless)
		assert.Equal(t, 1, headless.calls)
	})

	t.Run("plain error is returned", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		plain := &countingFetcher{err: boom}
		headless := &countingFetcher{}

		_, err := Promote(plain, headless, emptyBody, nil).Fetch(context.Background(), Request{URL: "https://a.test"})
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, headless.calls)
	})
}
