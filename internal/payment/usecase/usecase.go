package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arkapos/stockunit-service/config"
	"github.com/arkapos/stockunit-service/internal/model"
	"github.com/arkapos/stockunit-service/internal/payment"
	"github.com/arkapos/stockunit-service/internal/payment/dto"
	pkglogger "github.com/arkapos/stockunit-service/pkg/logger"
)

type paymentUseCase struct {
	repo   payment.Repository
	cfg    config.BillingConfig
	logger pkglogger.ZapLogger
	now    func() time.Time
}

func NewPaymentUseCase(repo payment.Repository, cfg config.BillingConfig, log pkglogger.ZapLogger) payment.UseCase {
	return &paymentUseCase{
		repo:   repo,
		cfg:    cfg,
		logger: log,
		now:    time.Now,
	}
}

func (uc *paymentUseCase) CreatePaymentEntry(ctx context.Context, input *dto.CreatePaymentInput) (*model.PaymentEntry, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("payment amount must be positive")
	}

	bill, err := uc.repo.GetBill(ctx, input.BillID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, payment.ErrBillNotFound
	}
	if bill.RemainingAmount <= 0 {
		return nil, payment.ErrAlreadyPaid
	}
	if input.Amount > bill.RemainingAmount+uc.cfg.OverpaymentEpsilon {
		return nil, fmt.Errorf("%w: remaining %.2f, attempted %.2f",
			payment.ErrOverpaymentRejected, bill.RemainingAmount, input.Amount)
	}

	// Walk-in bills carry no customer; the entry inherits whatever the
	// bill has, which may be nothing.
	customerID := bill.CustomerID
	if input.CustomerID != "" {
		cid := input.CustomerID
		customerID = &cid
	}

	paymentDate := uc.now()
	if input.PaymentDate != nil {
		paymentDate = *input.PaymentDate
	}

	entry := &model.PaymentEntry{
		ID:          uuid.New().String(),
		BillID:      bill.ID,
		CustomerID:  customerID,
		Amount:      input.Amount,
		Method:      input.Method,
		PaymentDate: paymentDate,
		CreatedAt:   uc.now(),
	}
	if input.Reference != "" {
		ref := input.Reference
		entry.Reference = &ref
	}

	if err := uc.repo.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}
	if _, err := uc.RecomputeBillStatus(ctx, bill.ID); err != nil {
		return nil, err
	}
	return entry, nil
}

func (uc *paymentUseCase) UpdatePaymentEntry(ctx context.Context, id string, input *dto.UpdatePaymentInput) (*model.PaymentEntry, error) {
	entry, err := uc.repo.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, payment.ErrEntryNotFound
	}

	fields := map[string]interface{}{}
	if input.Amount != nil {
		if *input.Amount <= 0 {
			return nil, fmt.Errorf("payment amount must be positive")
		}
		fields["amount"] = *input.Amount
	}
	if input.Method != nil {
		fields["method"] = *input.Method
	}
	if input.PaymentDate != nil {
		fields["payment_date"] = *input.PaymentDate
	}
	if input.Reference != nil {
		fields["reference"] = *input.Reference
	}

	if len(fields) > 0 {
		if err := uc.repo.UpdateEntry(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	if _, err := uc.RecomputeBillStatus(ctx, entry.BillID); err != nil {
		return nil, err
	}
	return uc.repo.GetEntry(ctx, id)
}

func (uc *paymentUseCase) DeletePaymentEntry(ctx context.Context, id string) error {
	entry, err := uc.repo.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	if entry == nil {
		return payment.ErrEntryNotFound
	}
	if err := uc.repo.DeleteEntry(ctx, id); err != nil {
		return err
	}
	_, err = uc.RecomputeBillStatus(ctx, entry.BillID)
	return err
}

func (uc *paymentUseCase) ListPaymentEntries(ctx context.Context, billID string) ([]model.PaymentEntry, error) {
	bill, err := uc.repo.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, payment.ErrBillNotFound
	}
	return uc.repo.ListEntries(ctx, billID)
}

// RecomputeBillStatus derives remaining amount and status from the full
// sum of entries rather than incrementally, so repeated edits never drift.
func (uc *paymentUseCase) RecomputeBillStatus(ctx context.Context, billID string) (*model.Bill, error) {
	bill, err := uc.repo.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, payment.ErrBillNotFound
	}

	paid, err := uc.repo.SumEntries(ctx, billID)
	if err != nil {
		return nil, err
	}

	remaining := bill.TotalAmount - paid
	status := model.PaymentPending
	switch {
	case remaining <= 0:
		status = model.PaymentPaid
	case paid > 0:
		status = model.PaymentPartial
	}
	if remaining < 0 {
		uc.logger.Warn("bill overpaid, clamping remaining amount",
			zap.String("bill_id", billID),
			zap.Float64("overpaid_by", -remaining),
		)
		remaining = 0
	}

	if err := uc.repo.SetBillPaymentState(ctx, billID, remaining, status); err != nil {
		return nil, err
	}
	bill.RemainingAmount = remaining
	bill.PaymentStatus = status
	return bill, nil
}
