package payment

import (
	"context"

	"github.com/arkapos/stockunit-service/internal/model"
)

type Repository interface {
	GetBill(ctx context.Context, id string) (*model.Bill, error)
	// SetBillPaymentState persists the recomputed derived state.
	SetBillPaymentState(ctx context.Context, billID string, remaining float64, status model.PaymentStatus) error

	CreateEntry(ctx context.Context, e *model.PaymentEntry) error
	GetEntry(ctx context.Context, id string) (*model.PaymentEntry, error)
	UpdateEntry(ctx context.Context, id string, fields map[string]interface{}) error
	DeleteEntry(ctx context.Context, id string) error
	ListEntries(ctx context.Context, billID string) ([]model.PaymentEntry, error)
	// SumEntries is the authoritative paid total for a bill.
	SumEntries(ctx context.Context, billID string) (float64, error)
}
