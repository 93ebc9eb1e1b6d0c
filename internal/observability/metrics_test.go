package observability_test

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"propsearch/internal/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	observability.ObserveHTTP("/api/v1/search", "POST", 200, 12*time.Millisecond)
	observability.ObserveSearch("keyword", "empty")

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, name := range []string{"propsearch_http_requests_total", "propsearch_searches_total"} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output", name)
		}
	}
}

func TestObserveCacheAndModel(t *testing.T) {
	before := testutil.ToFloat64(observability.CacheEvents.WithLabelValues("memory", "hit"))
	observability.ObserveCache("memory", "hit")
	after := testutil.ToFloat64(observability.CacheEvents.WithLabelValues("memory", "hit"))
	if after-before != 1 {
		t.Fatalf("cache hit counter moved by %v, want 1", after-before)
	}

	failed := testutil.ToFloat64(observability.ModelRequests.WithLabelValues("*errors.errorString"))
	observability.ObserveModel(errors.New("boom"), 0, time.Millisecond)
	if got := testutil.ToFloat64(observability.ModelRequests.WithLabelValues("*errors.errorString")); got-failed != 1 {
		t.Fatalf("model error counter moved by %v, want 1", got-failed)
	}
}

func TestLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	l := observability.NewLoggerTo(&buf, "debug", "json")
	l.Info().Str("query", "near mrt").Msg("parsed")
	if !strings.Contains(buf.String(), `"query":"near mrt"`) {
		t.Fatalf("json log line missing field: %s", buf.String())
	}
}
