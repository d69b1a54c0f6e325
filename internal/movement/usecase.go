package movement

import (
	"context"

	"github.com/arkapos/stockunit-service/internal/model"
	"github.com/arkapos/stockunit-service/internal/movement/dto"
)

// ListCachePrefix keys cached movement listings. Writers invalidate
// ListCachePrefix + "*" so a fresh listing follows every write.
const ListCachePrefix = "movements:list:"

type MovementList struct {
	Items      []model.StockMovement `json:"items"`
	TotalCount int                   `json:"total_count"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
}

type UseCase interface {
	ListMovements(ctx context.Context, filters *dto.MovementFilters) (*MovementList, error)
}
