package model

import "time"

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// Bill carries the derived payment state. RemainingAmount and PaymentStatus
// are always recomputed from the authoritative sum of payment entries, never
// incremented in place.
type Bill struct {
	BaseModel
	OrderID         *string       `db:"order_id" json:"order_id"`
	CustomerID      *string       `db:"customer_id" json:"customer_id"` // nil for walk-in
	TotalAmount     float64       `db:"total_amount" json:"total_amount"`
	RemainingAmount float64       `db:"remaining_amount" json:"remaining_amount"`
	PaymentStatus   PaymentStatus `db:"payment_status" json:"payment_status"`
}

type PaymentEntry struct {
	ID          string    `db:"id" json:"id"`
	BillID      string    `db:"bill_id" json:"bill_id"`
	CustomerID  *string   `db:"customer_id" json:"customer_id"`
	Amount      float64   `db:"amount" json:"amount"`
	Method      string    `db:"method" json:"method"`
	PaymentDate time.Time `db:"payment_date" json:"payment_date"`
	Reference   *string   `db:"reference" json:"reference"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
