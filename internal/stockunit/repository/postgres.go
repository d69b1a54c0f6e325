package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/arkapos/stockunit-service/internal/capability"
	"github.com/arkapos/stockunit-service/internal/model"
	"github.com/arkapos/stockunit-service/internal/stockunit/dto"
)

// PGRepository implements stockunit.Repository on Postgres. Status
// transitions are single conditional bulk updates with RETURNING, so the
// affected set is exactly what matched the predicate at execution time.
type PGRepository struct {
	DB     *sqlx.DB
	prober capability.Prober
}

func NewPGRepository(db *sqlx.DB, prober capability.Prober) *PGRepository {
	return &PGRepository{DB: db, prober: prober}
}

func (r *PGRepository) Create(ctx context.Context, unit *model.StockUnit) error {
	cols := `id, variant_id, location_id, unit_code, status, reservation_key, bill_id, order_id, sold_to_customer_id, notes, created_at, updated_at`
	vals := `:id, :variant_id, :location_id, :unit_code, :status, :reservation_key, :bill_id, :order_id, :sold_to_customer_id, :notes, :created_at, :updated_at`
	query := fmt.Sprintf(`INSERT INTO stock_units (%s) VALUES (%s)`, cols, vals)
	_, err := r.DB.NamedExecContext(ctx, query, unit)
	return err
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.StockUnit, error) {
	var unit model.StockUnit
	err := r.DB.GetContext(ctx, &unit, `SELECT * FROM stock_units WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &unit, nil
}

func (r *PGRepository) GetByCode(ctx context.Context, code string) (*model.StockUnit, error) {
	var unit model.StockUnit
	err := r.DB.GetContext(ctx, &unit, `SELECT * FROM stock_units WHERE unit_code = $1 LIMIT 1`, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &unit, nil
}

func (r *PGRepository) ListByIDs(ctx context.Context, ids []string) ([]model.StockUnit, error) {
	if len(ids) == 0 {
		return []model.StockUnit{}, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM stock_units WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var units []model.StockUnit
	err = r.DB.SelectContext(ctx, &units, r.DB.Rebind(query), args...)
	return units, err
}

func (r *PGRepository) ListByReservationKey(ctx context.Context, key string) ([]model.StockUnit, error) {
	var units []model.StockUnit
	err := r.DB.SelectContext(ctx, &units,
		`SELECT * FROM stock_units WHERE reservation_key = $1 AND status = 'reserved' ORDER BY created_at ASC`, key)
	return units, err
}

func (r *PGRepository) ListSoldByOrder(ctx context.Context, orderID string) ([]model.StockUnit, error) {
	var units []model.StockUnit
	err := r.DB.SelectContext(ctx, &units,
		`SELECT * FROM stock_units WHERE order_id = $1 AND status = 'sold' ORDER BY created_at ASC`, orderID)
	return units, err
}

func (r *PGRepository) Count(ctx context.Context, variantID, locationID string, status *model.UnitStatus) (int, error) {
	query := `SELECT count(*) FROM stock_units WHERE variant_id = $1 AND location_id = $2`
	args := []interface{}{variantID, locationID}
	if status != nil {
		query += ` AND status = $3`
		args = append(args, *status)
	}
	var count int
	err := r.DB.GetContext(ctx, &count, query, args...)
	return count, err
}

func (r *PGRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int
	err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM stock_units WHERE unit_code = $1`, code)
	return count > 0, err
}

func (r *PGRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	sets := make([]string, 0, len(fields)+1)
	args := map[string]interface{}{"id": id}
	for k, v := range fields {
		sets = append(sets, fmt.Sprintf("%s = :%s", k, k))
		args[k] = v
	}
	sets = append(sets, "updated_at = now()")
	query := fmt.Sprintf(`UPDATE stock_units SET %s WHERE id = :id`, strings.Join(sets, ", "))
	_, err := r.DB.NamedExecContext(ctx, query, args)
	return err
}

func (r *PGRepository) DeleteAvailable(ctx context.Context, ids []string) ([]model.StockUnit, error) {
	if len(ids) == 0 {
		return []model.StockUnit{}, nil
	}
	query, args, err := sqlx.In(
		`DELETE FROM stock_units WHERE id IN (?) AND status = 'available' RETURNING *`, ids)
	if err != nil {
		return nil, err
	}
	var units []model.StockUnit
	err = r.DB.SelectContext(ctx, &units, r.DB.Rebind(query), args...)
	return units, err
}

func (r *PGRepository) DamageAvailable(ctx context.Context, ids []string, reason string) ([]model.StockUnit, error) {
	if len(ids) == 0 {
		return []model.StockUnit{}, nil
	}
	query, args, err := sqlx.In(`
        UPDATE stock_units
        SET status = 'damaged', notes = ?, updated_at = now()
        WHERE id IN (?) AND status = 'available'
        RETURNING *`, reason, ids)
	if err != nil {
		return nil, err
	}
	var units []model.StockUnit
	err = r.DB.SelectContext(ctx, &units, r.DB.Rebind(query), args...)
	return units, err
}

// SelectAvailable picks the oldest unreserved units first (FIFO: oldest
// stock sold first). Units bonded into a pair are not sellable on their own
// and are skipped.
func (r *PGRepository) SelectAvailable(ctx context.Context, variantID, locationID string, limit int) ([]model.StockUnit, error) {
	var units []model.StockUnit
	err := r.DB.SelectContext(ctx, &units, `
        SELECT u.* FROM stock_units u
        WHERE u.variant_id = $1 AND u.location_id = $2
          AND u.status = 'available' AND u.reservation_key IS NULL
          AND NOT EXISTS (
              SELECT 1 FROM stock_unit_pairs p
              WHERE p.primary_unit_id = u.id OR p.secondary_unit_id = u.id
          )
        ORDER BY u.created_at ASC
        LIMIT $3`, variantID, locationID, limit)
	return units, err
}

func (r *PGRepository) ReserveUnits(ctx context.Context, ids []string, key string, expiresAt *time.Time) ([]model.StockUnit, error) {
	if len(ids) == 0 {
		return []model.StockUnit{}, nil
	}

	var (
		query string
		args  []interface{}
		err   error
	)
	if expiresAt != nil {
		query, args, err = sqlx.In(`
            UPDATE stock_units
            SET status = 'reserved', reservation_key = ?, reservation_expires_at = ?, updated_at = now()
            WHERE id IN (?) AND status = 'available' AND reservation_key IS NULL
            RETURNING *`, key, *expiresAt, ids)
	} else {
		query, args, err = sqlx.In(`
            UPDATE stock_units
            SET status = 'reserved', reservation_key = ?, updated_at = now()
            WHERE id IN (?) AND status = 'available' AND reservation_key IS NULL
            RETURNING *`, key, ids)
	}
	if err != nil {
		return nil, err
	}

	var units []model.StockUnit
	err = r.DB.SelectContext(ctx, &units, r.DB.Rebind(query), args...)
	return units, err
}

// releaseSet is the SET clause reverting a hold. The expiry column is only
// referenced when the schema has it.
func (r *PGRepository) releaseSet(ctx context.Context) string {
	set := `status = 'available', reservation_key = NULL, updated_at = now()`
	if r.prober.SupportsReservationExpiry(ctx) {
		set += `, reservation_expires_at = NULL`
	}
	return set
}

func (r *PGRepository) ReleaseByKey(ctx context.Context, key string) (int64, error) {
	query := fmt.Sprintf(`
        UPDATE stock_units SET %s
        WHERE status = 'reserved' AND reservation_key = $1`, r.releaseSet(ctx))
	res, err := r.DB.ExecContext(ctx, query, key)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PGRepository) ReleaseUnits(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf(`
        UPDATE stock_units SET %s
        WHERE id IN (?) AND status = 'reserved'`, r.releaseSet(ctx)), ids)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PGRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	if !r.prober.SupportsReservationExpiry(ctx) {
		return 0, nil
	}
	res, err := r.DB.ExecContext(ctx, `
        UPDATE stock_units
        SET status = 'available', reservation_key = NULL, reservation_expires_at = NULL, updated_at = now()
        WHERE status = 'reserved' AND reservation_expires_at IS NOT NULL AND reservation_expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PGRepository) SweepStale(ctx context.Context, olderThan time.Time) (int64, error) {
	query := fmt.Sprintf(`
        UPDATE stock_units SET %s
        WHERE status = 'reserved' AND updated_at < $1`, r.releaseSet(ctx))
	res, err := r.DB.ExecContext(ctx, query, olderThan)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// saleSet builds the SET clause promoting units to sold. The reservation
// fields are always cleared so a later restock reversal cannot find
// residual hold state.
func (r *PGRepository) saleSet(ctx context.Context) string {
	set := `status = 'sold', order_id = :order_id, bill_id = :bill_id, sold_to_customer_id = :customer_id,
            notes = COALESCE(:notes, notes), reservation_key = NULL, updated_at = now()`
	if r.prober.SupportsReservationExpiry(ctx) {
		set += `, reservation_expires_at = NULL`
	}
	return set
}

func (r *PGRepository) FulfillByKey(ctx context.Context, key string, sale dto.SaleFields) ([]model.StockUnit, error) {
	query := fmt.Sprintf(`
        UPDATE stock_units SET %s
        WHERE status = 'reserved' AND reservation_key = :key
        RETURNING *`, r.saleSet(ctx))
	return r.selectNamed(ctx, query, map[string]interface{}{
		"key":         key,
		"order_id":    sale.OrderID,
		"bill_id":     sale.BillID,
		"customer_id": sale.CustomerID,
		"notes":       sale.Notes,
	})
}

func (r *PGRepository) MarkSold(ctx context.Context, ids []string, sale dto.SaleFields) ([]model.StockUnit, error) {
	if len(ids) == 0 {
		return []model.StockUnit{}, nil
	}
	query := fmt.Sprintf(`
        UPDATE stock_units SET %s
        WHERE id IN (:ids) AND status IN ('available', 'reserved')
        RETURNING *`, r.saleSet(ctx))
	bound, args, err := sqlx.Named(query, map[string]interface{}{
		"ids":         ids,
		"order_id":    sale.OrderID,
		"bill_id":     sale.BillID,
		"customer_id": sale.CustomerID,
		"notes":       sale.Notes,
	})
	if err != nil {
		return nil, err
	}
	bound, args, err = sqlx.In(bound, args...)
	if err != nil {
		return nil, err
	}
	var units []model.StockUnit
	err = r.DB.SelectContext(ctx, &units, r.DB.Rebind(bound), args...)
	return units, err
}

func (r *PGRepository) RevertSoldByOrder(ctx context.Context, orderID string) ([]model.StockUnit, error) {
	set := `status = 'available', order_id = NULL, bill_id = NULL, sold_to_customer_id = NULL,
            reservation_key = NULL, updated_at = now()`
	if r.prober.SupportsReservationExpiry(ctx) {
		set += `, reservation_expires_at = NULL`
	}
	query := fmt.Sprintf(`
        UPDATE stock_units SET %s
        WHERE status = 'sold' AND order_id = $1
        RETURNING *`, set)
	var units []model.StockUnit
	err := r.DB.SelectContext(ctx, &units, query, orderID)
	return units, err
}

func (r *PGRepository) AvailabilityCounts(ctx context.Context, pools []dto.VariantLocation, now time.Time) ([]dto.AvailabilityRow, error) {
	if len(pools) == 0 {
		return []dto.AvailabilityRow{}, nil
	}

	heldExpr := `COUNT(*) FILTER (WHERE status = 'reserved')`
	args := []interface{}{}
	if r.prober.SupportsReservationExpiry(ctx) {
		// An expired-but-unswept hold does not count as held.
		heldExpr = `COUNT(*) FILTER (WHERE status = 'reserved'
            AND (reservation_expires_at IS NULL OR reservation_expires_at > ?))`
		args = append(args, now)
	}

	tuples := make([]string, 0, len(pools))
	for _, p := range pools {
		tuples = append(tuples, "(?, ?)")
		args = append(args, p.VariantID, p.LocationID)
	}

	query := fmt.Sprintf(`
        SELECT variant_id, location_id,
            COUNT(*) FILTER (WHERE status IN ('available', 'reserved')) AS on_hand,
            %s AS held,
            COUNT(*) FILTER (WHERE status = 'available') AS available
        FROM stock_units
        WHERE (variant_id, location_id) IN (%s)
        GROUP BY variant_id, location_id`, heldExpr, strings.Join(tuples, ", "))

	var rows []dto.AvailabilityRow
	err := r.DB.SelectContext(ctx, &rows, r.DB.Rebind(query), args...)
	return rows, err
}

func (r *PGRepository) selectNamed(ctx context.Context, query string, args map[string]interface{}) ([]model.StockUnit, error) {
	bound, boundArgs, err := sqlx.Named(query, args)
	if err != nil {
		return nil, err
	}
	var units []model.StockUnit
	err = r.DB.SelectContext(ctx, &units, r.DB.Rebind(bound), boundArgs...)
	return units, err
}
