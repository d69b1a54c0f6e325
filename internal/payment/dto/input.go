package dto

import "time"

type CreatePaymentInput struct {
	BillID      string
	CustomerID  string // optional; defaults to the bill's customer
	Amount      float64
	Method      string
	PaymentDate *time.Time
	Reference   string
}

type UpdatePaymentInput struct {
	Amount      *float64
	Method      *string
	PaymentDate *time.Time
	Reference   *string
}
