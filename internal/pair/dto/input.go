package dto

type CreatePairInput struct {
	PrimaryUnitID   string
	SecondaryUnitID string
	CombinedCode    string
	Notes           string
	ActorID         string
}

type ReservePairInput struct {
	PairID         string
	ReservationKey string
	TTLSeconds     int
}

type SellPairInput struct {
	PairID     string
	OrderID    string
	BillID     string
	CustomerID string
	Notes      string
	ActorID    string
}

// PairSaleFields is the sale metadata written onto the pair row.
type PairSaleFields struct {
	OrderID string
	BillID  *string
}
