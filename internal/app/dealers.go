package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"dealer_reviews/internal/domain"
)

// DealerService forwards dealer lookups and new reviews to the backend as-is.
type DealerService struct {
	backend domain.Backend
}

func NewDealerService(b domain.Backend) *DealerService {
	return &DealerService{backend: b}
}

// ListDealers returns every dealer, or only those in state when it is set and not "All".
func (s *DealerService) ListDealers(ctx context.Context, state string) (json.RawMessage, error) {
	endpoint := "/fetchDealers"
	if state != "" && state != "All" {
		endpoint += "/" + url.PathEscape(state)
	}
	return s.backend.Get(ctx, endpoint, nil)
}

func (s *DealerService) GetDealer(ctx context.Context, id int64) (json.RawMessage, error) {
	return s.backend.Get(ctx, "/fetchDealer/"+strconv.FormatInt(id, 10), nil)
}

// DealerIDs lists the ids of all dealers; the rest of each record is ignored.
func (s *DealerService) DealerIDs(ctx context.Context) ([]int64, error) {
	raw, err := s.ListDealers(ctx, "")
	if err != nil {
		return nil, err
	}
	var dealers []struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(raw, &dealers); err != nil {
		return nil, fmt.Errorf("%w: unexpected dealers payload: %v", domain.ErrUpstream, err)
	}
	ids := make([]int64, 0, len(dealers))
	for _, d := range dealers {
		if d.ID > 0 {
			ids = append(ids, d.ID)
		}
	}
	return ids, nil
}

// AddReview validates dealership and review text, then posts body to
// /insert_review byte for byte so fields we don't model still reach the backend.
func (s *DealerService) AddReview(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	r, err := domain.ParseNewReview(body)
	if err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return s.backend.Post(ctx, "/insert_review", body)
}
