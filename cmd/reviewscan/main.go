// Command reviewscan labels every dealer's reviews once and logs a sentiment
// tally per dealer. It uses the same pipeline as GET /reviews/dealer/{id}.
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"dealer_reviews/internal/adapters/backend"
	"dealer_reviews/internal/adapters/observability"
	"dealer_reviews/internal/adapters/sentiment"
	"dealer_reviews/internal/app"
	"dealer_reviews/internal/domain"
	"dealer_reviews/internal/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("backend", cfg.BackendURL).
		Str("sentiment", cfg.SentimentURL).
		Int("workers", cfg.ScanWorkers).
		Msg("reviewscan starting")

	bc := backend.New(cfg.BackendURL, cfg.BackendRPS, 15*time.Second)
	so := sentiment.DefaultOptions()
	so.Retries = cfg.SentimentRetries
	so.RawPath = cfg.SentimentRawPath
	so.Timeout = cfg.SentimentTimeout
	sc := sentiment.New(cfg.SentimentURL, so)

	dealers := app.NewDealerService(bc)
	agg := app.NewReviewAggregator(bc, sc, app.ReviewOptions{Workers: cfg.SentimentWorkers, Timeout: cfg.SentimentTimeout})

	ids, err := dealers.DealerIDs(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list dealers failed")
	}
	log.Info().Int("dealers", len(ids)).Msg("dealers fetched")

	failed := scan(ctx, agg, ids, cfg.ScanWorkers)
	log.Info().Int("dealers", len(ids)).Int("failed", failed).Msg("scan completed")
	if failed > 0 {
		stop()
		os.Exit(1)
	}
}

type dealerReviews interface {
	GetDealerReviews(ctx context.Context, dealerID string) domain.ReviewsEnvelope
}

// scan runs the pipeline for every dealer, at most workers at a time, logs a
// sentiment tally per dealer and returns how many dealers failed.
func scan(ctx context.Context, agg dealerReviews, ids []int64, workers int) int {
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var failed int32

	for _, id := range ids {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("scan interrupted")
			break
		}

		wg.Add(1)
		go func(dealerID int64) {
			defer wg.Done()
			defer sem.Release(1)

			out := agg.GetDealerReviews(ctx, strconv.FormatInt(dealerID, 10))
			if !out.OK() {
				atomic.AddInt32(&failed, 1)
				log.Warn().Int64("id", dealerID).Int("status", out.Status).Str("err", out.Error).Msg("dealer scan failed")
				return
			}
			tally := map[domain.Sentiment]int{}
			for _, r := range out.Reviews {
				tally[r.Sentiment]++
			}
			log.Info().
				Int64("id", dealerID).
				Int("reviews", len(out.Reviews)).
				Int("positive", tally[domain.SentimentPositive]).
				Int("neutral", tally[domain.SentimentNeutral]).
				Int("negative", tally[domain.SentimentNegative]).
				Int("unknown", tally[domain.SentimentUnknown]).
				Msg("dealer scanned")
		}(id)
	}

	wg.Wait()
	return int(atomic.LoadInt32(&failed))
}
