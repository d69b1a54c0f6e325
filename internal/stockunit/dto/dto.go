package dto

// VariantLocation identifies one (product variant, location) stock pool.
type VariantLocation struct {
	VariantID  string `json:"variant_id"`
	LocationID string `json:"location_id"`
}

// AvailabilityRow is one pool's unit counts as computed by the store.
type AvailabilityRow struct {
	VariantID  string `db:"variant_id"`
	LocationID string `db:"location_id"`
	OnHand     int    `db:"on_hand"`
	Held       int    `db:"held"`
	Available  int    `db:"available"`
}

// SaleFields is the metadata stamped onto units promoted to sold.
type SaleFields struct {
	OrderID    string
	BillID     *string
	CustomerID *string
	Notes      *string
}
