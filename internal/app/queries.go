package app

import (
	"context"
	"time"

	"dealer_reviews/internal/domain"
)

const carModelsKey = "cars:models"

// InventoryService serves the car catalogue through a read-through cache.
type InventoryService struct {
	repo     domain.CarRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewInventoryService(r domain.CarRepository, c domain.Cache, ttl time.Duration) *InventoryService {
	return &InventoryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *InventoryService) ListCarModels(ctx context.Context) ([]domain.CarModelView, error) {
	var out []domain.CarModelView
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, carModelsKey, &out); ok {
			return out, nil
		}
	}
	cars, err := s.repo.ListCarModels(ctx)
	if err != nil {
		return nil, err
	}
	if cars == nil {
		cars = []domain.CarModelView{}
	}
	// copy to avoid aliasing the repo's backing array
	out = make([]domain.CarModelView, len(cars))
	copy(out, cars)
	if s.cache != nil {
		_ = s.cache.Set(ctx, carModelsKey, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}
