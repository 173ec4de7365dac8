package detector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aifixr/feed-gateway/internal/fetcher"
)

func TestHeuristic_ShouldPromote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp fetcher.Response
		want bool
	}{
		{name: "empty body", resp: fetcher.Response{StatusCode: 200}, want: true},
		{name: "next marker", resp: fetcher.Response{StatusCode: 200, Body: []byte(`<div id="__next"></div>`)}, want: true},
		{name: "react root", resp: fetcher.Response{StatusCode: 200, Body: []byte(`<div id="root"></div>`)}, want: true},
		{
			name: "script heavy",
			resp: fetcher.Response{StatusCode: 200, Body: []byte(`<html><script>var a=1;</script><p>t</p></html>`)},
			want: true,
		},
		{
			name: "unclosed script",
			resp: fetcher.Response{StatusCode: 200, Body: []byte(`<p>hello</p><script src="x.js"`)},
			want: true,
		},
		{
			name: "server rendered",
			resp: fetcher.Response{StatusCode: 200, Body: []byte(`<table class="byChart">` + strings.Repeat("<tr><td>row</td></tr>", 20) + `</table>`)},
			want: false,
		},
		{name: "non 200", resp: fetcher.Response{StatusCode: 404, Body: []byte("not found")}, want: false},
		{name: "already headless", resp: fetcher.Response{StatusCode: 200, UsedHeadless: true}, want: false},
	}

	h := NewHeuristic(1000)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, h.ShouldPromote(tt.resp))
		})
	}
}

func TestNewHeuristic_DefaultThreshold(t *testing.T) {
	t.Parallel()

	require.Equal(t, defaultBodyLengthThreshold, NewHeuristic(0).BodyLengthThreshold)
}
