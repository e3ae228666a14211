package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dealer_reviews/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so the vectors are exported
	observability.ObserveHTTP("/reviews/dealer/{dealerId}", "GET", 200, 12*time.Millisecond)
	observability.ObserveExternal("sentiment", "/analyze", 200, 3*time.Millisecond)
	observability.ObserveSentiment("positive")
	observability.ObserveEnrich(20 * time.Millisecond)

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, name := range []string{
		"dealer_http_requests_total",
		"dealer_external_requests_total",
		`dealer_sentiment_labels_total{label="positive"}`,
		"dealer_review_enrich_duration_seconds",
	} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output", name)
		}
	}
}
