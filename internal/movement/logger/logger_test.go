package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/arkapos/stockunit-service/internal/memstore"
	"github.com/arkapos/stockunit-service/internal/model"
	"github.com/arkapos/stockunit-service/internal/movement"
	movdto "github.com/arkapos/stockunit-service/internal/movement/dto"
	pkglogger "github.com/arkapos/stockunit-service/pkg/logger"
)

type failingRepo struct{}

func (failingRepo) Insert(context.Context, *model.StockMovement) error {
	return errors.New("insert failed")
}

func (failingRepo) List(context.Context, *movdto.MovementFilters) ([]model.StockMovement, int, error) {
	return nil, 0, errors.New("list failed")
}

type failingPublisher struct{ calls int }

func (p *failingPublisher) Publish(context.Context, []byte, []byte) error {
	p.calls++
	return errors.New("broker down")
}

type recordingInvalidator struct {
	patterns []string
	err      error
}

func (i *recordingInvalidator) InvalidatePattern(_ context.Context, pattern string) error {
	i.patterns = append(i.patterns, pattern)
	return i.err
}

func TestLogMovementPersists(t *testing.T) {
	store := memstore.New()
	l := NewMovementLogger(store, nil, nil, nil, pkglogger.NewNop())

	l.LogMovement(context.Background(), movement.Entry{
		VariantID:     "v1",
		LocationID:    "l1",
		Direction:     model.MovementOut,
		Quantity:      2,
		UnitCodes:     []string{"AC001", "AC002"},
		ReferenceType: "sale",
		ReferenceID:   "order-1",
		ActorID:       "admin-1",
	})

	movements := store.Movements()
	if len(movements) != 1 {
		t.Fatalf("expected 1 stored movement, got %d", len(movements))
	}
	m := movements[0]
	if m.UnitCodes != "AC001,AC002" {
		t.Fatalf("codes not joined: %q", m.UnitCodes)
	}
	if m.ReferenceID == nil || *m.ReferenceID != "order-1" {
		t.Fatalf("reference not set: %+v", m)
	}
}

func TestLogMovementSwallowsFailures(t *testing.T) {
	pub := &failingPublisher{}
	l := NewMovementLogger(failingRepo{}, pub, nil, nil, pkglogger.NewNop())

	// must not panic or surface anything
	l.LogMovement(context.Background(), movement.Entry{
		VariantID:     "v1",
		LocationID:    "l1",
		Direction:     model.MovementIn,
		Quantity:      1,
		UnitCodes:     []string{"AC001"},
		ReferenceType: "intake",
	})

	if pub.calls != 1 {
		t.Fatalf("publish must still be attempted after a failed insert, calls %d", pub.calls)
	}
}

func TestLogMovementInvalidatesListCache(t *testing.T) {
	store := memstore.New()
	inv := &recordingInvalidator{}
	l := NewMovementLogger(store, nil, nil, inv, pkglogger.NewNop())

	l.LogMovement(context.Background(), movement.Entry{
		VariantID:     "v1",
		LocationID:    "l1",
		Direction:     model.MovementIn,
		Quantity:      1,
		UnitCodes:     []string{"AC001"},
		ReferenceType: "intake",
	})

	if len(inv.patterns) != 1 || inv.patterns[0] != movement.ListCachePrefix+"*" {
		t.Fatalf("expected one invalidation of %q, got %v", movement.ListCachePrefix+"*", inv.patterns)
	}
}

func TestLogMovementSkipsInvalidationWhenInsertFails(t *testing.T) {
	inv := &recordingInvalidator{err: errors.New("redis down")}
	l := NewMovementLogger(failingRepo{}, nil, nil, inv, pkglogger.NewNop())

	l.LogMovement(context.Background(), movement.Entry{
		VariantID:     "v1",
		LocationID:    "l1",
		Direction:     model.MovementIn,
		Quantity:      1,
		UnitCodes:     []string{"AC001"},
		ReferenceType: "intake",
	})

	// nothing persisted, so the cached listing is still correct
	if len(inv.patterns) != 0 {
		t.Fatalf("invalidation must not run after a failed insert, got %v", inv.patterns)
	}

	// an invalidation failure after a successful insert is swallowed too
	store := memstore.New()
	l = NewMovementLogger(store, nil, nil, inv, pkglogger.NewNop())
	l.LogMovement(context.Background(), movement.Entry{
		VariantID:     "v1",
		LocationID:    "l1",
		Direction:     model.MovementIn,
		Quantity:      1,
		UnitCodes:     []string{"AC002"},
		ReferenceType: "intake",
	})
	if len(store.Movements()) != 1 {
		t.Fatalf("movement must persist even when invalidation fails")
	}
}

func TestEntriesFromUnitsGroupsByPool(t *testing.T) {
	units := []model.StockUnit{
		{BaseModel: model.BaseModel{ID: "1"}, VariantID: "v1", LocationID: "l1", UnitCode: "A1"},
		{BaseModel: model.BaseModel{ID: "2"}, VariantID: "v1", LocationID: "l1", UnitCode: "A2"},
		{BaseModel: model.BaseModel{ID: "3"}, VariantID: "v2", LocationID: "l1", UnitCode: "B1"},
	}

	entries := movement.EntriesFromUnits(units, model.MovementOut, "sale", "order-1", "", "")
	if len(entries) != 2 {
		t.Fatalf("expected 2 pool entries, got %d", len(entries))
	}
	if entries[0].Quantity != 2 || len(entries[0].UnitCodes) != 2 {
		t.Fatalf("first pool should hold both v1 units: %+v", entries[0])
	}
	if entries[1].VariantID != "v2" || entries[1].Quantity != 1 {
		t.Fatalf("second pool wrong: %+v", entries[1])
	}
}
