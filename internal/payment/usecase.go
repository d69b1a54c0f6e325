package payment

import (
	"context"

	"github.com/arkapos/stockunit-service/internal/model"
	"github.com/arkapos/stockunit-service/internal/payment/dto"
)

type UseCase interface {
	CreatePaymentEntry(ctx context.Context, input *dto.CreatePaymentInput) (*model.PaymentEntry, error)
	UpdatePaymentEntry(ctx context.Context, id string, input *dto.UpdatePaymentInput) (*model.PaymentEntry, error)
	DeletePaymentEntry(ctx context.Context, id string) error
	// ListPaymentEntries returns the bill's entries, oldest first.
	ListPaymentEntries(ctx context.Context, billID string) ([]model.PaymentEntry, error)
	// RecomputeBillStatus rebuilds remaining amount and payment status from
	// the sum of all entries and persists the result.
	RecomputeBillStatus(ctx context.Context, billID string) (*model.Bill, error)
}
