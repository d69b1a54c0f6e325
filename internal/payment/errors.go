package payment

import "errors"

var (
	// ErrAlreadyPaid is returned when the bill has no remaining amount.
	ErrAlreadyPaid = errors.New("bill is already fully paid")
	// ErrOverpaymentRejected is returned when a payment would exceed the
	// remaining amount beyond the configured epsilon.
	ErrOverpaymentRejected = errors.New("payment exceeds remaining amount")
	// ErrBillNotFound is returned when the referenced bill does not exist.
	ErrBillNotFound = errors.New("bill not found")
	// ErrEntryNotFound is returned when the payment entry does not exist.
	ErrEntryNotFound = errors.New("payment entry not found")
)
