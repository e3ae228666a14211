// internal/adapters/backend/client.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"dealer_reviews/internal/adapters/observability"
	"dealer_reviews/internal/domain"
)

// Error is the structured failure of a backend call. It marshals to {"error": "..."}.
// Status is 0 for transport failures.
type Error struct {
	Status  int    `json:"-"`
	URL     string `json:"-"`
	Message string `json:"error"`
}

func (e *Error) Error() string { return e.Message }

// Is lets callers match with errors.Is(err, domain.ErrNotFound) / domain.ErrUpstream.
func (e *Error) Is(target error) bool {
	switch target {
	case domain.ErrNotFound:
		return e.Status == http.StatusNotFound
	case domain.ErrUpstream:
		return true
	}
	return false
}

// Client is a thin GET/POST helper against the dealership backend.
// It never retries; callers own that policy.
type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base string, rps int, timeout time.Duration) *Client {
	if rps <= 0 {
		rps = 20
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: timeout},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// URL resolves endpoint against the base and appends the encoded params, if any.
func (c *Client) URL(endpoint string, params domain.Params) string {
	u := c.base + endpoint
	if q := params.Encode(); q != "" {
		u += "?" + q
	}
	return u
}

func (c *Client) Get(ctx context.Context, endpoint string, params domain.Params) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, endpoint, c.URL(endpoint, params), nil)
}

func (c *Client) Post(ctx context.Context, endpoint string, body any) (json.RawMessage, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{URL: c.URL(endpoint, nil), Message: fmt.Sprintf("encode body: %v", err)}
	}
	return c.do(ctx, http.MethodPost, endpoint, c.URL(endpoint, nil), b)
}

func (c *Client) do(ctx context.Context, method, endpoint, url string, body []byte) (json.RawMessage, error) {
	// bodies may carry user data; only the method and url are logged
	log.Info().Str("method", method).Str("url", url).Msg("backend request")

	start := time.Now()
	status := 0
	defer func() {
		observability.ObserveExternal("backend", endpointLabel(endpoint), status, time.Since(start))
	}()

	if err := c.rl.Wait(ctx); err != nil {
		return nil, c.fail(method, url, 0, err.Error())
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, c.fail(method, url, 0, err.Error())
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "dealer-reviews/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, c.fail(method, url, 0, err.Error())
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	b, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, c.fail(method, url, status, fmt.Sprintf("read body: %v", err))
	}

	if status >= 400 {
		return nil, c.fail(method, url, status, statusMessage(status, b))
	}
	if status == http.StatusNoContent || len(bytes.TrimSpace(b)) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(b) {
		return nil, c.fail(method, url, status, "invalid JSON in response")
	}
	return json.RawMessage(b), nil
}

func (c *Client) fail(method, url string, status int, msg string) *Error {
	log.Warn().Str("method", method).Str("url", url).Int("status", status).Str("err", msg).Msg("backend request failed")
	return &Error{Status: status, URL: url, Message: msg}
}

// statusMessage prefers the backend's own {"error": "..."} text.
func statusMessage(status int, body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return fmt.Sprintf("%d %s: %s", status, http.StatusText(status), e.Error)
	}
	if s := strings.TrimSpace(string(body)); s != "" && len(s) <= 256 {
		return fmt.Sprintf("%d %s: %s", status, http.StatusText(status), s)
	}
	return fmt.Sprintf("%d %s", status, http.StatusText(status))
}

// endpointLabel keeps metric cardinality bounded: "/fetchReviews/dealer/15" -> "/fetchReviews".
func endpointLabel(endpoint string) string {
	p := strings.TrimPrefix(endpoint, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return "/" + p
}

// AsError unwraps a backend failure; ok is false for foreign errors.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
