package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arkapos/stockunit-service/internal/movement"
	"github.com/arkapos/stockunit-service/internal/movement/dto"
	pkglogger "github.com/arkapos/stockunit-service/pkg/logger"
)

// Cache is the slice of the cache backend listing needs. Nil disables
// caching.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

const listCacheTTL = 30 * time.Second

type movementUseCase struct {
	repo   movement.Repository
	cache  Cache
	logger pkglogger.ZapLogger
}

func NewMovementUseCase(repo movement.Repository, cache Cache, log pkglogger.ZapLogger) movement.UseCase {
	return &movementUseCase{repo: repo, cache: cache, logger: log}
}

func (uc *movementUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) (*movement.MovementList, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 200 {
		filters.PageSize = 50
	}

	key := listCacheKey(filters)
	if uc.cache != nil {
		var cached movement.MovementList
		found, err := uc.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			uc.logger.Warn("movement list cache read failed", zap.Error(err))
		} else if found {
			return &cached, nil
		}
	}

	items, total, err := uc.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	list := &movement.MovementList{
		Items:      items,
		TotalCount: total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
	}
	if uc.cache != nil {
		if err := uc.cache.SetJSON(ctx, key, list, listCacheTTL); err != nil {
			uc.logger.Warn("movement list cache write failed", zap.Error(err))
		}
	}
	return list, nil
}

func listCacheKey(f *dto.MovementFilters) string {
	start, end := "", ""
	if f.StartDate != nil {
		start = f.StartDate.UTC().Format(time.RFC3339)
	}
	if f.EndDate != nil {
		end = f.EndDate.UTC().Format(time.RFC3339)
	}
	return movement.ListCachePrefix + fmt.Sprintf("%s:%s:%s:%s:%s:%s:%d:%d",
		f.VariantID, f.LocationID, f.Direction, f.ReferenceType, start, end, f.Page, f.PageSize)
}
