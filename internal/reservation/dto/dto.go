package dto

type ReserveInput struct {
	VariantID      string
	LocationID     string
	Quantity       int
	ReservationKey string
	// TTLSeconds overrides the configured hold lifetime; zero uses the
	// default.
	TTLSeconds int
	// UnitID or UnitCode targets one specific unit instead of FIFO
	// allocation from the pool.
	UnitID   string
	UnitCode string
}

type ReservedUnit struct {
	ID       string `json:"id"`
	UnitCode string `json:"unit_code"`
}

// ReserveResult reports how much of the request was actually claimed.
// Reserved below Requested is partial fulfillment, not an error.
type ReserveResult struct {
	Requested int            `json:"requested"`
	Reserved  int            `json:"reserved"`
	Units     []ReservedUnit `json:"units"`
}

type FulfillInput struct {
	ReservationKey string
	OrderID        string
	BillID         string
	CustomerID     string
	Notes          string
	ActorID        string
}

type FulfillResult struct {
	Fulfilled int            `json:"fulfilled"`
	Units     []ReservedUnit `json:"units"`
}
