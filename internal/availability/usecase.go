package availability

import (
	"context"

	sudto "github.com/arkapos/stockunit-service/internal/stockunit/dto"
)

// Metric is one pool's counters. Held counts active holds only; a hold
// past its expiry no longer counts even before the sweeper reclaims it.
type Metric struct {
	VariantID  string `json:"variant_id"`
	LocationID string `json:"location_id"`
	OnHand     int    `json:"on_hand"`
	Held       int    `json:"held"`
	Available  int    `json:"available"`
}

type UseCase interface {
	// GetMetrics returns one metric per requested pool, in request order,
	// with zeroes for pools that have no units at all.
	GetMetrics(ctx context.Context, pools []sudto.VariantLocation) ([]Metric, error)
	// ListLowStock filters the requested pools down to those whose
	// available count is at or below the threshold.
	ListLowStock(ctx context.Context, pools []sudto.VariantLocation, threshold int) ([]Metric, error)
}
