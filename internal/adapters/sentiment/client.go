// internal/adapters/sentiment/client.go
package sentiment

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"dealer_reviews/internal/adapters/observability"
	"dealer_reviews/internal/domain"
)

type Options struct {
	// Retries is the number of extra attempts on 429/5xx/network errors.
	Retries int
	// RawPath sends the review text unescaped, like the original analyzer clients did.
	RawPath bool
	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration
	// BackoffBase is the first retry delay; it doubles per attempt.
	BackoffBase time.Duration
	// Breaker trips after BreakerMinRequests calls with a failure ratio >= BreakerRatio.
	BreakerMinRequests uint32
	BreakerRatio       float64
	BreakerCooldown    time.Duration
}

func DefaultOptions() Options {
	return Options{
		Retries:            1,
		Timeout:            10 * time.Second,
		BackoffBase:        200 * time.Millisecond,
		BreakerMinRequests: 5,
		BreakerRatio:       0.6,
		BreakerCooldown:    30 * time.Second,
	}
}

// Client calls the sentiment analyzer microservice: GET <base>analyze/<text>.
// Analyze never fails; every problem yields "unknown".
type Client struct {
	base string
	hc   *http.Client
	opts Options
	cb   *gobreaker.CircuitBreaker
}

func New(base string, opts Options) *Client {
	def := DefaultOptions()
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = def.BackoffBase
	}
	if opts.BreakerMinRequests == 0 {
		opts.BreakerMinRequests = def.BreakerMinRequests
	}
	if opts.BreakerRatio <= 0 {
		opts.BreakerRatio = def.BreakerRatio
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = def.BreakerCooldown
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "sentiment-analyzer",
		MaxRequests: 3,
		Interval:    opts.BreakerCooldown,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < opts.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= opts.BreakerRatio
		},
		// the caller giving up says nothing about the analyzer's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("circuit", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
	return &Client{
		base: base,
		hc:   &http.Client{Timeout: opts.Timeout},
		opts: opts,
		cb:   cb,
	}
}

// URL embeds text as the last path segment.
func (c *Client) URL(text string) string {
	if c.opts.RawPath {
		return c.base + "analyze/" + text
	}
	return c.base + "analyze/" + url.PathEscape(text)
}

func (c *Client) Analyze(ctx context.Context, text string) domain.SentimentResult {
	u := c.URL(text)
	log.Debug().Str("url", u).Msg("sentiment request")

	v, err := c.cb.Execute(func() (interface{}, error) {
		return c.get(ctx, u)
	})
	if err != nil {
		log.Warn().Err(err).Str("url", u).Msg("sentiment analysis failed, using unknown")
		return domain.UnknownSentiment()
	}
	return v.(domain.SentimentResult)
}

var errMalformed = errors.New("sentiment: malformed response")

// get performs the request with bounded retries on 429, transient 5xx and network errors.
func (c *Client) get(ctx context.Context, u string) (domain.SentimentResult, error) {
	var lastErr error
	for i := 0; i <= c.opts.Retries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return domain.SentimentResult{}, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "dealer-reviews/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("sentiment", "/analyze", 0, time.Since(start))
			if ctx.Err() != nil {
				return domain.SentimentResult{}, ctx.Err()
			}
			lastErr = err
			if i < c.opts.Retries && sleepCtx(ctx, c.backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return domain.SentimentResult{}, ctx.Err()
			}
			return domain.SentimentResult{}, lastErr
		}
		observability.ObserveExternal("sentiment", "/analyze", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			res, err := decode(resp.Body)
			resp.Body.Close()
			return res, err

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = c.backoff(i)
			}
			lastErr = fmt.Errorf("sentiment: remote %d", resp.StatusCode)
			if i < c.opts.Retries && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return domain.SentimentResult{}, ctx.Err()
			}
			return domain.SentimentResult{}, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return domain.SentimentResult{}, fmt.Errorf("sentiment: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return domain.SentimentResult{}, lastErr
}

// decode reads {"sentiment": "...", "confidence"?: n}. A missing or unrecognised
// label is still a successful call and maps to unknown.
func decode(r io.Reader) (domain.SentimentResult, error) {
	var body struct {
		Sentiment  string   `json:"sentiment"`
		Confidence *float64 `json:"confidence"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 1<<20)).Decode(&body); err != nil {
		return domain.SentimentResult{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	return domain.SentimentResult{
		Sentiment:  domain.ParseSentiment(body.Sentiment),
		Confidence: body.Confidence,
	}, nil
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles BackoffBase per attempt and adds up to +50% jitter.
func (c *Client) backoff(i int) time.Duration {
	base := time.Duration(1<<i) * c.opts.BackoffBase
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
