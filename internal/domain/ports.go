package domain

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
	ErrUpstream   = errors.New("upstream unavailable")
)

// Param is one query string pair; Params keeps insertion order.
type Param struct{ Key, Value string }

type Params []Param

// Encode percent-encodes each pair and joins them with '&' in insertion order.
func (p Params) Encode() string {
	parts := make([]string, 0, len(p))
	for _, kv := range p {
		parts = append(parts, url.QueryEscape(kv.Key)+"="+url.QueryEscape(kv.Value))
	}
	return strings.Join(parts, "&")
}

// Backend is the review/dealer REST service. Errors are always *backend.Error.
type Backend interface {
	Get(ctx context.Context, endpoint string, params Params) (json.RawMessage, error)
	Post(ctx context.Context, endpoint string, body any) (json.RawMessage, error)
}

// SentimentAnalyzer never fails: every failure collapses to SentimentUnknown.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) SentimentResult
}

type CarRepository interface {
	ListCarModels(ctx context.Context) ([]CarModelView, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
