package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/arkapos/stockunit-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetBill(ctx context.Context, id string) (*model.Bill, error) {
	var bill model.Bill
	err := r.DB.GetContext(ctx, &bill, `SELECT * FROM bills WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &bill, nil
}

func (r *PGRepository) SetBillPaymentState(ctx context.Context, billID string, remaining float64, status model.PaymentStatus) error {
	_, err := r.DB.ExecContext(ctx, `
        UPDATE bills
        SET remaining_amount = $1, payment_status = $2, updated_at = now()
        WHERE id = $3`, remaining, status, billID)
	return err
}

func (r *PGRepository) CreateEntry(ctx context.Context, e *model.PaymentEntry) error {
	query := `
        INSERT INTO payment_entries (
            id, bill_id, customer_id, amount, method, payment_date, reference, created_at
        )
        VALUES (
            :id, :bill_id, :customer_id, :amount, :method, :payment_date, :reference, :created_at
        )`
	_, err := r.DB.NamedExecContext(ctx, query, e)
	return err
}

func (r *PGRepository) GetEntry(ctx context.Context, id string) (*model.PaymentEntry, error) {
	var e model.PaymentEntry
	err := r.DB.GetContext(ctx, &e, `SELECT * FROM payment_entries WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *PGRepository) UpdateEntry(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	sets := make([]string, 0, len(fields))
	args := map[string]interface{}{"id": id}
	for k, v := range fields {
		sets = append(sets, fmt.Sprintf("%s = :%s", k, k))
		args[k] = v
	}
	query := fmt.Sprintf(`UPDATE payment_entries SET %s WHERE id = :id`, strings.Join(sets, ", "))
	_, err := r.DB.NamedExecContext(ctx, query, args)
	return err
}

func (r *PGRepository) DeleteEntry(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM payment_entries WHERE id = $1`, id)
	return err
}

func (r *PGRepository) ListEntries(ctx context.Context, billID string) ([]model.PaymentEntry, error) {
	var entries []model.PaymentEntry
	err := r.DB.SelectContext(ctx, &entries,
		`SELECT * FROM payment_entries WHERE bill_id = $1 ORDER BY payment_date ASC, created_at ASC`, billID)
	return entries, err
}

func (r *PGRepository) SumEntries(ctx context.Context, billID string) (float64, error) {
	var sum float64
	err := r.DB.GetContext(ctx, &sum,
		`SELECT COALESCE(SUM(amount), 0) FROM payment_entries WHERE bill_id = $1`, billID)
	return sum, err
}
