package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://music.bugs.co.kr/chart", "music.bugs.co.kr"},
		{"standard https", "https://Prod.Danawa.com/list/", "prod.danawa.com"},
		{"no scheme", "example.com/path", "example.com"},
		{"just host", "example.com", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"ip address", "192.168.1.1", "192.168.1.1"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()

	if httpRequestsTotal == nil || capabilityInvocationsTotal == nil ||
		fetchesTotal == nil || mountedRouters == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}
}

func TestObserveInvocation(t *testing.T) {
	ObserveInvocation("test/observe", OutcomeSuccess, 3, 10*time.Millisecond)
	ObserveInvocation("test/observe", OutcomeFailure, 0, time.Millisecond)
	ObserveInvocation("test/observe", OutcomeFailure, 0, time.Millisecond)

	if val := testutil.ToFloat64(capabilityInvocationsTotal.WithLabelValues("test/observe", OutcomeSuccess)); val != 1 {
		t.Errorf("expected 1 success, got %f", val)
	}
	if val := testutil.ToFloat64(capabilityInvocationsTotal.WithLabelValues("test/observe", OutcomeFailure)); val != 2 {
		t.Errorf("expected 2 failures, got %f", val)
	}
	if val := testutil.ToFloat64(capabilityRecordsTotal.WithLabelValues("test/observe")); val != 3 {
		t.Errorf("expected 3 records, got %f", val)
	}
}

func TestObserveFetch(t *testing.T) {
	ObserveFetch("https://Fetch.Example.test/chart", "colly", OutcomeSuccess, 512)

	if val := testutil.ToFloat64(fetchesTotal.WithLabelValues("fetch.example.test", "colly", OutcomeSuccess)); val != 1 {
		t.Errorf("expected 1 fetch, got %f", val)
	}
	if val := testutil.ToFloat64(fetchBytesTotal.WithLabelValues("fetch.example.test")); val != 512 {
		t.Errorf("expected 512 bytes, got %f", val)
	}
}

func TestSetMountedRouters(t *testing.T) {
	SetMountedRouters(2)
	if val := testutil.ToFloat64(mountedRouters); val != 2 {
		t.Errorf("expected 2 mounted routers, got %f", val)
	}
}

// Fuzz test for SanitizeSite.
func FuzzSanitizeSite(f *testing.F) {
	testcases := []string{"http://example.com", "https://music.bugs.co.kr", "ftp://example.com"}
	for _, tc := range testcases {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		sanitized := SanitizeSite(orig)
		if sanitized == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}
