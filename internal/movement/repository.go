package movement

import (
	"context"

	"github.com/arkapos/stockunit-service/internal/model"
	"github.com/arkapos/stockunit-service/internal/movement/dto"
)

type Repository interface {
	Insert(ctx context.Context, m *model.StockMovement) error
	List(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
}
