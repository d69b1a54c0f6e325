package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/arkapos/stockunit-service/internal/memstore"
	"github.com/arkapos/stockunit-service/internal/model"
	"github.com/arkapos/stockunit-service/internal/movement"
	"github.com/arkapos/stockunit-service/internal/movement/dto"
	movlogger "github.com/arkapos/stockunit-service/internal/movement/logger"
	pkglogger "github.com/arkapos/stockunit-service/pkg/logger"
)

// fakeCache is an in-process stand-in for the Redis JSON cache.
type fakeCache struct {
	data map[string][]byte
	hits int
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string][]byte{}} }

func (c *fakeCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(raw, dest)
}

func (c *fakeCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *fakeCache) InvalidatePattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}
	return nil
}

func insertMovement(t *testing.T, store *memstore.Store, variantID string, direction model.MovementDirection) {
	t.Helper()
	err := store.Insert(context.Background(), &model.StockMovement{
		ID:            variantID + "-" + string(direction),
		VariantID:     variantID,
		LocationID:    "l1",
		Direction:     direction,
		Quantity:      1,
		ReferenceType: "intake",
		CreatedAt:     time.Now(),
	})
	if err != nil {
		t.Fatalf("insert movement: %v", err)
	}
}

func TestListMovementsFilters(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := NewMovementUseCase(store, nil, pkglogger.NewNop())

	insertMovement(t, store, "v1", model.MovementIn)
	insertMovement(t, store, "v1", model.MovementOut)
	insertMovement(t, store, "v2", model.MovementIn)

	list, err := uc.ListMovements(ctx, &dto.MovementFilters{VariantID: "v1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.TotalCount != 2 {
		t.Fatalf("expected 2 movements for v1, got %d", list.TotalCount)
	}

	list, err = uc.ListMovements(ctx, &dto.MovementFilters{VariantID: "v1", Direction: "out"})
	if err != nil {
		t.Fatalf("list out: %v", err)
	}
	if list.TotalCount != 1 || list.Items[0].Direction != model.MovementOut {
		t.Fatalf("direction filter failed: %+v", list)
	}
}

func TestListMovementsUsesCache(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	cache := newFakeCache()
	uc := NewMovementUseCase(store, cache, pkglogger.NewNop())

	insertMovement(t, store, "v1", model.MovementIn)

	filters := &dto.MovementFilters{VariantID: "v1"}
	first, err := uc.ListMovements(ctx, filters)
	if err != nil {
		t.Fatalf("first list: %v", err)
	}
	if cache.hits != 0 {
		t.Fatalf("first read must miss the cache, hits %d", cache.hits)
	}

	second, err := uc.ListMovements(ctx, &dto.MovementFilters{VariantID: "v1"})
	if err != nil {
		t.Fatalf("second list: %v", err)
	}
	if cache.hits != 1 {
		t.Fatalf("second read must hit the cache, hits %d", cache.hits)
	}
	if second.TotalCount != first.TotalCount {
		t.Fatalf("cached result differs: %d vs %d", second.TotalCount, first.TotalCount)
	}
}

func TestListMovementsFreshAfterWrite(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	cache := newFakeCache()
	uc := NewMovementUseCase(store, cache, pkglogger.NewNop())
	logger := movlogger.NewMovementLogger(store, nil, nil, cache, pkglogger.NewNop())

	insertMovement(t, store, "v1", model.MovementIn)

	primed, err := uc.ListMovements(ctx, &dto.MovementFilters{VariantID: "v1"})
	if err != nil {
		t.Fatalf("prime list: %v", err)
	}
	if primed.TotalCount != 1 {
		t.Fatalf("expected 1 movement before the write, got %d", primed.TotalCount)
	}

	logger.LogMovement(ctx, movement.Entry{
		VariantID:     "v1",
		LocationID:    "l1",
		Direction:     model.MovementOut,
		Quantity:      1,
		UnitCodes:     []string{"AC002"},
		ReferenceType: "sale",
	})

	after, err := uc.ListMovements(ctx, &dto.MovementFilters{VariantID: "v1"})
	if err != nil {
		t.Fatalf("list after write: %v", err)
	}
	if after.TotalCount != 2 {
		t.Fatalf("listing after a write must see it, got %d movements (want 2)", after.TotalCount)
	}
}
