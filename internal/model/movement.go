package model

import "time"

type MovementDirection string

const (
	MovementIn  MovementDirection = "in"
	MovementOut MovementDirection = "out"
)

// StockMovement is one audit-trail entry for a stock change. Writing it is
// best-effort; it never participates in the primary transaction's outcome.
type StockMovement struct {
	ID            string            `db:"id" json:"id"`
	VariantID     string            `db:"variant_id" json:"variant_id"`
	LocationID    string            `db:"location_id" json:"location_id"`
	Direction     MovementDirection `db:"direction" json:"direction"`
	Quantity      int               `db:"quantity" json:"quantity"`
	UnitCodes     string            `db:"unit_codes" json:"unit_codes"` // comma-joined
	ReferenceType string            `db:"reference_type" json:"reference_type"`
	ReferenceID   *string           `db:"reference_id" json:"reference_id"`
	Notes         string            `db:"notes" json:"notes"`
	ActorID       *string           `db:"actor_id" json:"actor_id"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
}
