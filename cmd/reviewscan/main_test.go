package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"dealer_reviews/internal/domain"
)

type fakeReviews struct {
	mu   sync.Mutex
	seen []string
	out  map[string]domain.ReviewsEnvelope
}

func (f *fakeReviews) GetDealerReviews(ctx context.Context, id string) domain.ReviewsEnvelope {
	f.mu.Lock()
	f.seen = append(f.seen, id)
	f.mu.Unlock()
	if e, ok := f.out[id]; ok {
		return e
	}
	return domain.ReviewsEnvelope{Status: http.StatusBadGateway, Message: "Upstream Unavailable", Error: "down"}
}

func labelled(ls ...domain.Sentiment) []domain.Review {
	out := make([]domain.Review, len(ls))
	for i, l := range ls {
		out[i] = domain.Review{ID: int64(i + 1), Sentiment: l}
	}
	return out
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestScan_TalliesAndFailures(t *testing.T) {
	buf := captureLog(t)
	agg := &fakeReviews{out: map[string]domain.ReviewsEnvelope{
		"1": {Status: http.StatusOK, Reviews: labelled(domain.SentimentPositive, domain.SentimentPositive, domain.SentimentUnknown)},
		"2": {Status: http.StatusOK, Reviews: labelled(domain.SentimentNegative)},
	}}

	failed := scan(context.Background(), agg, []int64{1, 2, 3}, 2)
	if failed != 1 {
		t.Fatalf("expected 1 failed dealer, got %d", failed)
	}

	type tally struct {
		ID       int64 `json:"id"`
		Reviews  int   `json:"reviews"`
		Positive int   `json:"positive"`
		Negative int   `json:"negative"`
		Unknown  int   `json:"unknown"`
	}
	got := map[int64]tally{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var l struct {
			tally
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(line), &l); err != nil {
			t.Fatalf("log line %q: %v", line, err)
		}
		if l.Message == "dealer scanned" {
			got[l.ID] = l.tally
		}
	}
	want := map[int64]tally{
		1: {ID: 1, Reviews: 3, Positive: 2, Unknown: 1},
		2: {ID: 2, Reviews: 1, Negative: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tallies (-want +got):\n%s", diff)
	}
	if !strings.Contains(buf.String(), `"message":"dealer scan failed"`) {
		t.Fatalf("expected failure log, got %s", buf.String())
	}
}

func TestScan_CancelledStopsLaunching(t *testing.T) {
	captureLog(t)
	agg := &fakeReviews{out: map[string]domain.ReviewsEnvelope{}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if failed := scan(ctx, agg, []int64{1, 2, 3}, 1); failed != 0 {
		t.Fatalf("nothing should run after cancellation, got %d failures", failed)
	}
	if len(agg.seen) != 0 {
		t.Fatalf("dealers scanned after cancellation: %v", agg.seen)
	}
}
