package httpserver_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	server "dealer_reviews/internal/adapters/http_server"
)

func TestTimeout_WritesJSONEnvelope(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	rr := httptest.NewRecorder()
	server.Timeout(20*time.Millisecond)(slow).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}
	if rr.Body.String() != `{"status":503,"message":"timeout"}` {
		t.Fatalf("body %s", rr.Body.String())
	}
}

func TestTimeout_HandlerContentTypeWins(t *testing.T) {
	fast := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	rr := httptest.NewRecorder()
	server.Timeout(time.Second)(fast).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if ct := rr.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Fatalf("content type %q", ct)
	}
}
