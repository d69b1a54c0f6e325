package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/arkapos/stockunit-service/internal/memstore"
	"github.com/arkapos/stockunit-service/internal/model"
	movlogger "github.com/arkapos/stockunit-service/internal/movement/logger"
	"github.com/arkapos/stockunit-service/internal/stockunit"
	"github.com/arkapos/stockunit-service/internal/stockunit/dto"
	pkglogger "github.com/arkapos/stockunit-service/pkg/logger"
)

func newUseCase(store *memstore.Store) stockunit.UseCase {
	movements := movlogger.NewMovementLogger(store, nil, nil, nil, pkglogger.NewNop())
	return NewStockUnitUseCase(store, movements, pkglogger.NewNop())
}

func TestNormalizeCode(t *testing.T) {
	cases := map[string]string{
		"ac-001":        "AC001",
		"AC 001":        "AC001",
		"  sn/12.34  ":  "SN1234",
		"abc123":        "ABC123",
		"---":           "",
		"AC001":         "AC001",
		"ac_001-rev.2!": "AC001REV2",
	}
	for in, want := range cases {
		if got := stockunit.NormalizeCode(in); got != want {
			t.Errorf("NormalizeCode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCreateUnitNormalizesAndLogsIntake(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := newUseCase(store)

	unit, err := uc.CreateUnit(ctx, &dto.CreateUnitInput{
		VariantID:  "v1",
		LocationID: "l1",
		UnitCode:   "ac-001",
		ActorID:    "admin-1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if unit.UnitCode != "AC001" {
		t.Fatalf("expected normalized code AC001, got %s", unit.UnitCode)
	}
	if unit.Status != model.UnitAvailable {
		t.Fatalf("expected available status, got %s", unit.Status)
	}

	movements := store.Movements()
	if len(movements) != 1 {
		t.Fatalf("expected 1 intake movement, got %d", len(movements))
	}
	m := movements[0]
	if m.Direction != model.MovementIn || m.Quantity != 1 || m.ReferenceType != "intake" {
		t.Fatalf("unexpected movement: %+v", m)
	}
}

func TestCreateUnitDuplicateCode(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := newUseCase(store)

	input := &dto.CreateUnitInput{VariantID: "v1", LocationID: "l1", UnitCode: "AC001"}
	if _, err := uc.CreateUnit(ctx, input); err != nil {
		t.Fatalf("first create: %v", err)
	}
	// same code in a different written form
	_, err := uc.CreateUnit(ctx, &dto.CreateUnitInput{VariantID: "v1", LocationID: "l1", UnitCode: "ac-001"})
	if !errors.Is(err, stockunit.ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}
}

func TestUpdateUnitRejectsTakenCode(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := newUseCase(store)

	first, _ := uc.CreateUnit(ctx, &dto.CreateUnitInput{VariantID: "v1", LocationID: "l1", UnitCode: "AC001"})
	second, _ := uc.CreateUnit(ctx, &dto.CreateUnitInput{VariantID: "v1", LocationID: "l1", UnitCode: "AC002"})

	taken := "ac 001"
	_, err := uc.UpdateUnit(ctx, second.ID, &dto.UpdateUnitInput{UnitCode: &taken})
	if !errors.Is(err, stockunit.ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}

	// re-submitting a unit's own code is fine
	own := "ac-001"
	updated, err := uc.UpdateUnit(ctx, first.ID, &dto.UpdateUnitInput{UnitCode: &own})
	if err != nil {
		t.Fatalf("update with own code: %v", err)
	}
	if updated.UnitCode != "AC001" {
		t.Fatalf("code changed unexpectedly: %s", updated.UnitCode)
	}
}

func TestRemoveUnitsSkipsNonAvailable(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := newUseCase(store)

	keep, _ := uc.CreateUnit(ctx, &dto.CreateUnitInput{VariantID: "v1", LocationID: "l1", UnitCode: "AC001"})
	gone, _ := uc.CreateUnit(ctx, &dto.CreateUnitInput{VariantID: "v1", LocationID: "l1", UnitCode: "AC002"})

	// reserve one so removal must skip it
	if _, err := store.ReserveUnits(ctx, []string{keep.ID}, "cart-1", nil); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	removed, err := uc.RemoveUnits(ctx, &dto.RemoveUnitsInput{
		UnitIDs: []string{keep.ID, gone.ID},
		Mode:    dto.RemoveModeDelete,
		ActorID: "admin-1",
	})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	u, _ := store.GetByID(ctx, keep.ID)
	if u == nil || u.Status != model.UnitReserved {
		t.Fatal("reserved unit must survive removal")
	}
	if u, _ := store.GetByID(ctx, gone.ID); u != nil {
		t.Fatal("available unit should be deleted")
	}
}

func TestRemoveUnitsDamageMode(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := newUseCase(store)

	unit, _ := uc.CreateUnit(ctx, &dto.CreateUnitInput{VariantID: "v1", LocationID: "l1", UnitCode: "AC001"})

	removed, err := uc.RemoveUnits(ctx, &dto.RemoveUnitsInput{
		UnitIDs: []string{unit.ID},
		Mode:    dto.RemoveModeDamage,
		Reason:  "dropped in transit",
	})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 damaged, got %d", removed)
	}

	u, _ := store.GetByID(ctx, unit.ID)
	if u.Status != model.UnitDamaged {
		t.Fatalf("expected damaged, got %s", u.Status)
	}
	if u.Notes == nil || *u.Notes != "dropped in transit" {
		t.Fatalf("damage reason not recorded: %+v", u.Notes)
	}

	movements := store.Movements()
	last := movements[len(movements)-1]
	if last.Direction != model.MovementOut || last.ReferenceType != "damage" {
		t.Fatalf("expected outbound damage movement, got %+v", last)
	}
}

func TestRemoveUnitsDamageIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := newUseCase(store)

	unit, _ := uc.CreateUnit(ctx, &dto.CreateUnitInput{VariantID: "v1", LocationID: "l1", UnitCode: "AC001"})

	input := &dto.RemoveUnitsInput{UnitIDs: []string{unit.ID}, Mode: dto.RemoveModeDamage, Reason: "crushed"}
	if _, err := uc.RemoveUnits(ctx, input); err != nil {
		t.Fatalf("first damage: %v", err)
	}
	removed, err := uc.RemoveUnits(ctx, input)
	if err != nil {
		t.Fatalf("second damage: %v", err)
	}
	if removed != 0 {
		t.Fatalf("repeat damage must affect nothing, got %d", removed)
	}
}

func TestResolveByCode(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := newUseCase(store)

	created, _ := uc.CreateUnit(ctx, &dto.CreateUnitInput{VariantID: "v1", LocationID: "l1", UnitCode: "AC001"})

	unit, err := uc.ResolveByCode(ctx, " ac-001 ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if unit == nil || unit.ID != created.ID {
		t.Fatalf("expected the created unit, got %+v", unit)
	}

	unit, err = uc.ResolveByCode(ctx, "ZZ999")
	if err != nil {
		t.Fatalf("resolve unknown: %v", err)
	}
	if unit != nil {
		t.Fatal("unknown code must resolve to nil without error")
	}
}

func TestCountUnitsByStatus(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := newUseCase(store)

	a, _ := uc.CreateUnit(ctx, &dto.CreateUnitInput{VariantID: "v1", LocationID: "l1", UnitCode: "AC001"})
	uc.CreateUnit(ctx, &dto.CreateUnitInput{VariantID: "v1", LocationID: "l1", UnitCode: "AC002"})
	store.ReserveUnits(ctx, []string{a.ID}, "cart-1", nil)

	total, err := uc.CountUnits(ctx, "v1", "l1", nil)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 total, got %d", total)
	}

	reserved := model.UnitReserved
	held, err := uc.CountUnits(ctx, "v1", "l1", &reserved)
	if err != nil {
		t.Fatalf("count reserved: %v", err)
	}
	if held != 1 {
		t.Fatalf("expected 1 reserved, got %d", held)
	}
}
