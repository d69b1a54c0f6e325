package model

import "time"

type UnitStatus string

const (
	UnitAvailable UnitStatus = "available"
	UnitReserved  UnitStatus = "reserved"
	UnitSold      UnitStatus = "sold"
	UnitDamaged   UnitStatus = "damaged"
)

// StockUnit is one physical, individually trackable inventory item.
// UnitCode is unique across all units and normalized to uppercase
// alphanumeric. ReservationKey is set iff status is reserved; BillID and
// OrderID are set only on sold units.
type StockUnit struct {
	BaseModel
	VariantID            string     `db:"variant_id" json:"variant_id"`
	LocationID           string     `db:"location_id" json:"location_id"`
	UnitCode             string     `db:"unit_code" json:"unit_code"`
	Status               UnitStatus `db:"status" json:"status"`
	ReservationKey       *string    `db:"reservation_key" json:"reservation_key"`
	ReservationExpiresAt *time.Time `db:"reservation_expires_at" json:"reservation_expires_at"`
	BillID               *string    `db:"bill_id" json:"bill_id"`
	OrderID              *string    `db:"order_id" json:"order_id"`
	SoldToCustomerID     *string    `db:"sold_to_customer_id" json:"sold_to_customer_id"`
	Notes                *string    `db:"notes" json:"notes"`
}

type PairStatus string

const (
	PairAvailable PairStatus = "available"
	PairReserved  PairStatus = "reserved"
	PairSold      PairStatus = "sold"
)

// StockUnitPair bonds exactly two component units (e.g. the indoor and
// outdoor halves of a split unit) under one sellable combined code. Pair
// status mirrors and drives the status of both components.
type StockUnitPair struct {
	BaseModel
	PrimaryUnitID        string     `db:"primary_unit_id" json:"primary_unit_id"`
	SecondaryUnitID      string     `db:"secondary_unit_id" json:"secondary_unit_id"`
	CombinedCode         string     `db:"combined_code" json:"combined_code"`
	Status               PairStatus `db:"status" json:"status"`
	ReservationKey       *string    `db:"reservation_key" json:"reservation_key"`
	ReservationExpiresAt *time.Time `db:"reservation_expires_at" json:"reservation_expires_at"`
	BillID               *string    `db:"bill_id" json:"bill_id"`
	OrderID              *string    `db:"order_id" json:"order_id"`
	Notes                *string    `db:"notes" json:"notes"`
}
