package dto

import "time"

type MovementFilters struct {
	VariantID     string
	LocationID    string
	Direction     string
	ReferenceType string
	StartDate     *time.Time
	EndDate       *time.Time
	Page          int
	PageSize      int
}
