package pair

import (
	"context"
	"time"

	"github.com/arkapos/stockunit-service/internal/model"
	"github.com/arkapos/stockunit-service/internal/pair/dto"
)

// Repository is the storage contract for stock unit pairs. The same
// conditional-update discipline as for single units applies: transitions
// only match rows still in the expected state, and a false/zero result
// means "lost the race", not an error.
type Repository interface {
	Create(ctx context.Context, p *model.StockUnitPair) error
	GetByID(ctx context.Context, id string) (*model.StockUnitPair, error)
	GetByCombinedCode(ctx context.Context, code string) (*model.StockUnitPair, error)
	// FindByComponent returns the pair holding the unit in either slot.
	FindByComponent(ctx context.Context, unitID string) (*model.StockUnitPair, error)
	CombinedCodeExists(ctx context.Context, code string) (bool, error)

	Reserve(ctx context.Context, id, key string, expiresAt *time.Time) (bool, error)
	Release(ctx context.Context, id string) (bool, error)
	ReleaseByKey(ctx context.Context, key string) ([]model.StockUnitPair, error)
	Sell(ctx context.Context, id string, sale dto.PairSaleFields) (bool, error)
	// Delete removes the pair row unless it is sold; used by dismantle
	// only. False means a concurrent sale won the row.
	Delete(ctx context.Context, id string) (bool, error)
}
