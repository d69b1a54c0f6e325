package stockunit

import (
	"context"
	"time"

	"github.com/arkapos/stockunit-service/internal/model"
	"github.com/arkapos/stockunit-service/internal/stockunit/dto"
)

// Repository is the storage contract for individual stock units. Every
// status transition is a predicate-conditioned bulk update: the write only
// matches rows still in the expected state, so concurrent callers cannot
// double-claim a row. Zero affected rows is a valid result, not an error.
type Repository interface {
	// CRUD
	Create(ctx context.Context, unit *model.StockUnit) error
	GetByID(ctx context.Context, id string) (*model.StockUnit, error)
	GetByCode(ctx context.Context, code string) (*model.StockUnit, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.StockUnit, error)
	ListByReservationKey(ctx context.Context, key string) ([]model.StockUnit, error)
	ListSoldByOrder(ctx context.Context, orderID string) ([]model.StockUnit, error)
	Count(ctx context.Context, variantID, locationID string, status *model.UnitStatus) (int, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error

	// Removal: only units currently available are affected; the returned
	// rows are the ones actually removed or damaged.
	DeleteAvailable(ctx context.Context, ids []string) ([]model.StockUnit, error)
	DamageAvailable(ctx context.Context, ids []string, reason string) ([]model.StockUnit, error)

	// Reservation transitions. SelectAvailable orders by creation time
	// ascending (oldest stock first) and skips units bonded into a pair.
	SelectAvailable(ctx context.Context, variantID, locationID string, limit int) ([]model.StockUnit, error)
	ReserveUnits(ctx context.Context, ids []string, key string, expiresAt *time.Time) ([]model.StockUnit, error)
	ReleaseByKey(ctx context.Context, key string) (int64, error)
	ReleaseUnits(ctx context.Context, ids []string) (int64, error)
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
	SweepStale(ctx context.Context, olderThan time.Time) (int64, error)

	// Sale transitions.
	FulfillByKey(ctx context.Context, key string, sale dto.SaleFields) ([]model.StockUnit, error)
	MarkSold(ctx context.Context, ids []string, sale dto.SaleFields) ([]model.StockUnit, error)
	RevertSoldByOrder(ctx context.Context, orderID string) ([]model.StockUnit, error)

	// Batch availability counts for dashboards and low-stock logic.
	AvailabilityCounts(ctx context.Context, pools []dto.VariantLocation, now time.Time) ([]dto.AvailabilityRow, error)
}
