package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"dealer_reviews/internal/adapters/observability"
	"dealer_reviews/internal/domain"
)

type ReviewOptions struct {
	// Workers caps concurrent sentiment calls for one request.
	Workers int
	// Timeout bounds each sentiment call; 0 disables it.
	Timeout time.Duration
}

// ReviewAggregator fetches a dealer's reviews and labels each with a sentiment.
// It holds no state between requests.
type ReviewAggregator struct {
	backend   domain.Backend
	sentiment domain.SentimentAnalyzer
	opts      ReviewOptions
}

func NewReviewAggregator(b domain.Backend, s domain.SentimentAnalyzer, opts ReviewOptions) *ReviewAggregator {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &ReviewAggregator{backend: b, sentiment: s, opts: opts}
}

// ParseDealerID accepts positive integers only; "", "0", "-3" and "abc" are rejected.
func ParseDealerID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// GetDealerReviews runs validate -> fetch -> enrich. Only enrichment degrades
// (per review, to "unknown"); validation and fetch failures end the request.
func (a *ReviewAggregator) GetDealerReviews(ctx context.Context, dealerID string) domain.ReviewsEnvelope {
	id, ok := ParseDealerID(dealerID)
	if !ok {
		return domain.ReviewsEnvelope{Status: http.StatusBadRequest, Message: "Bad Request"}
	}

	reviews, err := a.fetch(ctx, id)
	if err != nil {
		log.Warn().Err(err).Int64("dealer", id).Msg("review fetch failed")
		return domain.ReviewsEnvelope{Status: http.StatusBadGateway, Message: "Upstream Unavailable", Error: err.Error()}
	}

	start := time.Now()
	a.enrich(ctx, reviews)
	observability.ObserveEnrich(time.Since(start))

	return domain.ReviewsEnvelope{Status: http.StatusOK, Reviews: reviews}
}

func (a *ReviewAggregator) fetch(ctx context.Context, id int64) ([]domain.Review, error) {
	raw, err := a.backend.Get(ctx, "/fetchReviews/dealer/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return nil, err
	}
	var reviews []domain.Review
	if err := json.Unmarshal(raw, &reviews); err != nil {
		return nil, fmt.Errorf("%w: unexpected reviews payload: %v", domain.ErrUpstream, err)
	}
	if reviews == nil {
		// a JSON null is not a list; "no reviews" is []
		return nil, fmt.Errorf("%w: reviews payload is null", domain.ErrUpstream)
	}
	return reviews, nil
}

// enrich labels every review in place. Each goroutine writes only its own
// index, so ordering follows the fetch and no lock is needed.
func (a *ReviewAggregator) enrich(ctx context.Context, reviews []domain.Review) {
	labels := make([]domain.Sentiment, len(reviews))
	sem := semaphore.NewWeighted(int64(a.opts.Workers))
	var wg sync.WaitGroup

	for i := range reviews {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			// request cancelled: the rest stay unknown
			break
		}
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			defer sem.Release(1)
			labels[i] = a.analyze(ctx, text)
		}(i, reviews[i].Review)
	}
	wg.Wait()

	for i := range reviews {
		l := labels[i]
		if l == "" {
			l = domain.SentimentUnknown
		}
		reviews[i].Sentiment = l
		observability.ObserveSentiment(string(l))
	}
}

func (a *ReviewAggregator) analyze(ctx context.Context, text string) domain.Sentiment {
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}
	return domain.ParseSentiment(string(a.sentiment.Analyze(ctx, text).Sentiment))
}
