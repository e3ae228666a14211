package shared_test

import (
	"testing"
	"time"

	"dealer_reviews/internal/shared"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"BACKEND_URL", "backend_url", "SENTIMENT_ANALYZER_URL", "sentiment_analyzer_url",
		"SENTIMENT_WORKERS", "SENTIMENT_TIMEOUT_MS", "SENTIMENT_RAW_PATH"} {
		t.Setenv(k, "")
	}
	c := shared.Load()
	if c.BackendURL != "http://localhost:3030" {
		t.Fatalf("backend default: %q", c.BackendURL)
	}
	if c.SentimentURL != "http://localhost:5050/" {
		t.Fatalf("sentiment default: %q", c.SentimentURL)
	}
	if c.SentimentWorkers != 4 || c.SentimentTimeout != 3*time.Second {
		t.Fatalf("unexpected sentiment settings: %d %s", c.SentimentWorkers, c.SentimentTimeout)
	}
	if c.SentimentRawPath {
		t.Fatalf("raw path should be off by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "")
	t.Setenv("backend_url", "http://backend:3030")
	t.Setenv("SENTIMENT_ANALYZER_URL", "http://sa:5050/")
	t.Setenv("SENTIMENT_WORKERS", "0")
	t.Setenv("SENTIMENT_RAW_PATH", "true")

	c := shared.Load()
	if c.BackendURL != "http://backend:3030" {
		t.Fatalf("lower-case alias not honored: %q", c.BackendURL)
	}
	if c.SentimentURL != "http://sa:5050/" {
		t.Fatalf("sentiment override: %q", c.SentimentURL)
	}
	if c.SentimentWorkers != 1 {
		t.Fatalf("workers should be clamped to 1, got %d", c.SentimentWorkers)
	}
	if !c.SentimentRawPath {
		t.Fatalf("raw path override ignored")
	}
}
