package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Sentiment is a view-time label attached to a review after it is fetched.
// It is never sent back to the review backend.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentUnknown  Sentiment = "unknown"
)

// ParseSentiment maps an analyzer label onto the known set; anything else is unknown.
func ParseSentiment(s string) Sentiment {
	switch l := Sentiment(strings.ToLower(strings.TrimSpace(s))); l {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return l
	}
	return SentimentUnknown
}

// SentimentResult is what the analyzer returned for one text.
type SentimentResult struct {
	Sentiment  Sentiment `json:"sentiment"`
	Confidence *float64  `json:"confidence,omitempty"`
}

func UnknownSentiment() SentimentResult { return SentimentResult{Sentiment: SentimentUnknown} }

// Review as served by the backend's /fetchReviews endpoints.
// Purchase details are only meaningful when Purchase is set.
type Review struct {
	ID           int64   `json:"id"`
	Dealership   int64   `json:"dealership"`
	Name         string  `json:"name"`
	Review       string  `json:"review"`
	Purchase     bool    `json:"purchase"`
	PurchaseDate *string `json:"purchase_date,omitempty"`
	CarMake      *string `json:"car_make,omitempty"`
	CarModel     *string `json:"car_model,omitempty"`
	CarYear      *int    `json:"car_year,omitempty"`

	Sentiment Sentiment `json:"sentiment,omitempty"`

	// raw keeps every upstream field (including ones we don't model, e.g. _id)
	// so the enriched review differs from the fetched one only by "sentiment".
	raw map[string]json.RawMessage
}

type reviewAlias Review

// UnmarshalJSON accepts any JSON object. Known fields are read best-effort so a
// review whose car_year is "2021" or whose id is 2.0 still passes through.
func (r *Review) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("review: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("review: null object")
	}
	*r = Review{raw: raw}
	r.ID, _ = lenientInt(raw["id"])
	r.Dealership, _ = lenientInt(raw["dealership"])
	r.Name = lenientString(raw["name"])
	r.Review = lenientString(raw["review"])
	_ = json.Unmarshal(raw["purchase"], &r.Purchase)
	r.PurchaseDate = optionalString(raw["purchase_date"])
	r.CarMake = optionalString(raw["car_make"])
	r.CarModel = optionalString(raw["car_model"])
	if y, ok := lenientInt(raw["car_year"]); ok {
		yr := int(y)
		r.CarYear = &yr
	}
	return nil
}

// lenientInt reads an integral JSON number or a numeric string.
func lenientInt(v json.RawMessage) (int64, bool) {
	if len(v) == 0 {
		return 0, false
	}
	var x any
	if err := json.Unmarshal(v, &x); err != nil {
		return 0, false
	}
	switch t := x.(type) {
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func lenientString(v json.RawMessage) string {
	var s string
	if len(v) == 0 || json.Unmarshal(v, &s) != nil {
		return ""
	}
	return s
}

func optionalString(v json.RawMessage) *string {
	var s *string
	if len(v) == 0 || json.Unmarshal(v, &s) != nil {
		return nil
	}
	return s
}

func (r Review) MarshalJSON() ([]byte, error) {
	if r.raw == nil {
		return json.Marshal(reviewAlias(r))
	}
	out := make(map[string]json.RawMessage, len(r.raw)+1)
	for k, v := range r.raw {
		out[k] = v
	}
	if r.Sentiment != "" {
		s, _ := json.Marshal(r.Sentiment)
		out["sentiment"] = s
	}
	return json.Marshal(out)
}

// ReviewsEnvelope is the response of the dealer reviews pipeline.
// Status mirrors the HTTP status: 200 carries Reviews, anything else carries Message.
type ReviewsEnvelope struct {
	Status  int
	Reviews []Review
	Message string
	Error   string
}

func (e ReviewsEnvelope) OK() bool { return e.Status == 200 }

func (e ReviewsEnvelope) MarshalJSON() ([]byte, error) {
	if e.OK() {
		reviews := e.Reviews
		if reviews == nil {
			reviews = []Review{}
		}
		return json.Marshal(struct {
			Status  int      `json:"status"`
			Reviews []Review `json:"reviews"`
		}{e.Status, reviews})
	}
	return json.Marshal(struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Error   string `json:"error,omitempty"`
	}{e.Status, e.Message, e.Error})
}

// NewReview is the lenient view of an /add_review body used for validation.
// The body itself is forwarded to /insert_review unchanged.
type NewReview struct {
	Dealership int64
	Review     string
}

// ParseNewReview reads dealership and review from a JSON object, accepting
// numeric strings the way the backend's schema coerces them.
func ParseNewReview(b []byte) (NewReview, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil || raw == nil {
		return NewReview{}, fmt.Errorf("%w: body must be a JSON object", ErrBadRequest)
	}
	id, _ := lenientInt(raw["dealership"])
	return NewReview{Dealership: id, Review: lenientString(raw["review"])}, nil
}

func (n NewReview) Validate() error {
	if n.Dealership <= 0 {
		return fmt.Errorf("%w: dealership must be a positive id", ErrBadRequest)
	}
	if strings.TrimSpace(n.Review) == "" {
		return fmt.Errorf("%w: review text is required", ErrBadRequest)
	}
	return nil
}
