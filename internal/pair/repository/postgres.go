package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/arkapos/stockunit-service/internal/capability"
	"github.com/arkapos/stockunit-service/internal/model"
	"github.com/arkapos/stockunit-service/internal/pair/dto"
)

type PGRepository struct {
	DB     *sqlx.DB
	prober capability.Prober
}

func NewPGRepository(db *sqlx.DB, prober capability.Prober) *PGRepository {
	return &PGRepository{DB: db, prober: prober}
}

func (r *PGRepository) Create(ctx context.Context, p *model.StockUnitPair) error {
	query := `
        INSERT INTO stock_unit_pairs (
            id, primary_unit_id, secondary_unit_id, combined_code, status,
            reservation_key, bill_id, order_id, notes, created_at, updated_at
        )
        VALUES (
            :id, :primary_unit_id, :secondary_unit_id, :combined_code, :status,
            :reservation_key, :bill_id, :order_id, :notes, :created_at, :updated_at
        )`
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.StockUnitPair, error) {
	var p model.StockUnitPair
	err := r.DB.GetContext(ctx, &p, `SELECT * FROM stock_unit_pairs WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) GetByCombinedCode(ctx context.Context, code string) (*model.StockUnitPair, error) {
	var p model.StockUnitPair
	err := r.DB.GetContext(ctx, &p, `SELECT * FROM stock_unit_pairs WHERE combined_code = $1 LIMIT 1`, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) FindByComponent(ctx context.Context, unitID string) (*model.StockUnitPair, error) {
	var p model.StockUnitPair
	err := r.DB.GetContext(ctx, &p,
		`SELECT * FROM stock_unit_pairs WHERE primary_unit_id = $1 OR secondary_unit_id = $1 LIMIT 1`, unitID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) CombinedCodeExists(ctx context.Context, code string) (bool, error) {
	var count int
	err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM stock_unit_pairs WHERE combined_code = $1`, code)
	return count > 0, err
}

func (r *PGRepository) Reserve(ctx context.Context, id, key string, expiresAt *time.Time) (bool, error) {
	var res sql.Result
	var err error
	if expiresAt != nil {
		res, err = r.DB.ExecContext(ctx, `
            UPDATE stock_unit_pairs
            SET status = 'reserved', reservation_key = $1, reservation_expires_at = $2, updated_at = now()
            WHERE id = $3 AND status = 'available' AND reservation_key IS NULL`, key, *expiresAt, id)
	} else {
		res, err = r.DB.ExecContext(ctx, `
            UPDATE stock_unit_pairs
            SET status = 'reserved', reservation_key = $1, updated_at = now()
            WHERE id = $2 AND status = 'available' AND reservation_key IS NULL`, key, id)
	}
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PGRepository) releaseSet(ctx context.Context) string {
	set := `status = 'available', reservation_key = NULL, updated_at = now()`
	if r.prober.SupportsReservationExpiry(ctx) {
		set += `, reservation_expires_at = NULL`
	}
	return set
}

func (r *PGRepository) Release(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf(`
        UPDATE stock_unit_pairs SET %s
        WHERE id = $1 AND status = 'reserved'`, r.releaseSet(ctx))
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PGRepository) ReleaseByKey(ctx context.Context, key string) ([]model.StockUnitPair, error) {
	query := fmt.Sprintf(`
        UPDATE stock_unit_pairs SET %s
        WHERE status = 'reserved' AND reservation_key = $1
        RETURNING *`, r.releaseSet(ctx))
	var pairs []model.StockUnitPair
	err := r.DB.SelectContext(ctx, &pairs, query, key)
	return pairs, err
}

func (r *PGRepository) Sell(ctx context.Context, id string, sale dto.PairSaleFields) (bool, error) {
	set := `status = 'sold', order_id = $1, bill_id = $2, reservation_key = NULL, updated_at = now()`
	if r.prober.SupportsReservationExpiry(ctx) {
		set += `, reservation_expires_at = NULL`
	}
	query := fmt.Sprintf(`
        UPDATE stock_unit_pairs SET %s
        WHERE id = $3 AND status IN ('available', 'reserved')`, set)
	res, err := r.DB.ExecContext(ctx, query, sale.OrderID, sale.BillID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PGRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM stock_unit_pairs WHERE id = $1 AND status <> 'sold'`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
