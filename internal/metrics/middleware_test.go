package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware(t *testing.T) {
	Init()
	before200 := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("PUT", "200"))
	before404 := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("PUT", "404"))

	r := chi.NewRouter()
	r.Use(Middleware)
	r.Put("/test", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Put("/notfound", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	ts := httptest.NewServer(r)
	defer ts.Close()

	for _, path := range []string{"/test", "/notfound"} {
		req, err := http.NewRequest(http.MethodPut, ts.URL+path, nil)
		if err != nil {
			t.Fatal(err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		if errInner := resp.Body.Close(); errInner != nil {
			t.Log(errInner)
		}
	}

	if val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("PUT", "200")) - before200; val != 1 {
		t.Errorf("Expected httpRequestsTotal for PUT /test to grow by 1, got %f", val)
	}
	if val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("PUT", "404")) - before404; val != 1 {
		t.Errorf("Expected httpRequestsTotal for PUT /notfound to grow by 1, got %f", val)
	}
	if val := testutil.CollectAndCount(httpRequestDurationSeconds); val <= 0 {
		t.Errorf("Expected httpRequestDurationSeconds to be observed, got %d", val)
	}
}

func TestMiddleware_ForwardsFlushAndHijack(t *testing.T) {
	var flushed, hijacked bool
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		f, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("expected http.Flusher")
		}
		f.Flush()
		flushed = true

		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Fatal("expected http.Hijacker")
		}
		if _, _, err := hj.Hijack(); err == nil {
			t.Fatal("expected hijack to fail on a recorder")
		}
		hijacked = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream", nil))

	if !flushed || !hijacked {
		t.Fatalf("flushed=%v hijacked=%v", flushed, hijacked)
	}
	if !rec.Flushed {
		t.Error("expected the underlying recorder to be flushed")
	}
}
