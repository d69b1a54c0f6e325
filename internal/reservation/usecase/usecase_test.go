package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/arkapos/stockunit-service/config"
	"github.com/arkapos/stockunit-service/internal/capability"
	"github.com/arkapos/stockunit-service/internal/memstore"
	"github.com/arkapos/stockunit-service/internal/model"
	movlogger "github.com/arkapos/stockunit-service/internal/movement/logger"
	"github.com/arkapos/stockunit-service/internal/reservation"
	"github.com/arkapos/stockunit-service/internal/reservation/dto"
	pkglogger "github.com/arkapos/stockunit-service/pkg/logger"
)

func newEngine(store *memstore.Store, supportsExpiry bool) reservation.UseCase {
	store.SupportsExpiry = supportsExpiry
	movements := movlogger.NewMovementLogger(store, nil, nil, nil, pkglogger.NewNop())
	cfg := config.ReservationConfig{DefaultTTLSeconds: 900, StaleAfterHours: 24}
	return NewReservationUseCase(store, capability.Static(supportsExpiry), movements, cfg, pkglogger.NewNop())
}

func seedUnit(t *testing.T, store *memstore.Store, variantID, locationID, code string) *model.StockUnit {
	t.Helper()
	ts := time.Now()
	unit := &model.StockUnit{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: ts,
			UpdatedAt: ts,
		},
		VariantID:  variantID,
		LocationID: locationID,
		UnitCode:   code,
		Status:     model.UnitAvailable,
	}
	if err := store.Create(context.Background(), unit); err != nil {
		t.Fatalf("seed unit: %v", err)
	}
	return unit
}

func TestReserveFIFOPartialFulfillment(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := newEngine(store, true)

	first := seedUnit(t, store, "v1", "l1", "AC001")
	second := seedUnit(t, store, "v1", "l1", "AC002")
	seedUnit(t, store, "v2", "l1", "AC003") // different variant, must not be touched

	result, err := uc.Reserve(ctx, &dto.ReserveInput{
		VariantID:      "v1",
		LocationID:     "l1",
		Quantity:       3,
		ReservationKey: "cart-1",
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if result.Requested != 3 || result.Reserved != 2 {
		t.Fatalf("expected 2 of 3 reserved, got %d of %d", result.Reserved, result.Requested)
	}
	// oldest units first
	if result.Units[0].ID != first.ID || result.Units[1].ID != second.ID {
		t.Fatalf("expected FIFO order %s, %s; got %s, %s",
			first.UnitCode, second.UnitCode, result.Units[0].UnitCode, result.Units[1].UnitCode)
	}

	u, _ := store.GetByID(ctx, first.ID)
	if u.Status != model.UnitReserved || u.ReservationKey == nil || *u.ReservationKey != "cart-1" {
		t.Fatalf("unit not reserved under key: %+v", u)
	}
	if u.ReservationExpiresAt == nil {
		t.Fatal("expected expiry to be set when schema supports it")
	}
}

func TestReserveSpecificUnitByCode(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := newEngine(store, true)

	seedUnit(t, store, "v1", "l1", "AC001")
	target := seedUnit(t, store, "v1", "l1", "AC002")

	result, err := uc.Reserve(ctx, &dto.ReserveInput{
		ReservationKey: "cart-1",
		UnitCode:       "ac-002", // resolves after normalization
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if result.Reserved != 1 || result.Units[0].ID != target.ID {
		t.Fatalf("expected the specific unit reserved, got %+v", result)
	}
}

func TestReserveSpecificUnitAlreadyHeld(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := newEngine(store, true)

	target := seedUnit(t, store, "v1", "l1", "AC001")
	if _, err := uc.Reserve(ctx, &dto.ReserveInput{ReservationKey: "cart-1", UnitID: target.ID}); err != nil {
		t.Fatalf("first reserve: %v", err)
	}

	result, err := uc.Reserve(ctx, &dto.ReserveInput{ReservationKey: "cart-2", UnitID: target.ID})
	if err != nil {
		t.Fatalf("second reserve: %v", err)
	}
	if result.Reserved != 0 {
		t.Fatalf("expected zero reserved for a held unit, got %d", result.Reserved)
	}
}

func TestReserveWithoutExpirySupport(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := newEngine(store, false)

	unit := seedUnit(t, store, "v1", "l1", "AC001")
	if _, err := uc.Reserve(ctx, &dto.ReserveInput{ReservationKey: "cart-1", UnitID: unit.ID}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	u, _ := store.GetByID(ctx, unit.ID)
	if u.ReservationExpiresAt != nil {
		t.Fatal("expiry must stay unset when the schema cannot track it")
	}

	released, err := uc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep expired: %v", err)
	}
	if released != 0 {
		t.Fatalf("sweep must be a no-op without expiry support, released %d", released)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := newEngine(store, true)

	seedUnit(t, store, "v1", "l1", "AC001")
	seedUnit(t, store, "v1", "l1", "AC002")

	if _, err := uc.Reserve(ctx, &dto.ReserveInput{
		VariantID: "v1", LocationID: "l1", Quantity: 2, ReservationKey: "cart-1",
	}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	released, err := uc.Release(ctx, "cart-1")
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if released != 2 {
		t.Fatalf("expected 2 released, got %d", released)
	}

	released, err = uc.Release(ctx, "cart-1")
	if err != nil {
		t.Fatalf("second release: %v", err)
	}
	if released != 0 {
		t.Fatalf("second release must be a no-op, got %d", released)
	}
}

func TestSweepExpiredReleasesOnlyExpired(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := newEngine(store, true)

	expired := seedUnit(t, store, "v1", "l1", "AC001")
	active := seedUnit(t, store, "v1", "l1", "AC002")

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)
	if _, err := store.ReserveUnits(ctx, []string{expired.ID}, "cart-old", &past); err != nil {
		t.Fatalf("reserve expired: %v", err)
	}
	if _, err := store.ReserveUnits(ctx, []string{active.ID}, "cart-new", &future); err != nil {
		t.Fatalf("reserve active: %v", err)
	}

	released, err := uc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if released != 1 {
		t.Fatalf("expected 1 released, got %d", released)
	}

	u, _ := store.GetByID(ctx, expired.ID)
	if u.Status != model.UnitAvailable || u.ReservationKey != nil || u.ReservationExpiresAt != nil {
		t.Fatalf("expired hold not fully cleared: %+v", u)
	}
	u, _ = store.GetByID(ctx, active.ID)
	if u.Status != model.UnitReserved {
		t.Fatal("active hold must survive the sweep")
	}
}

func TestSweepStaleUsesConfiguredDefault(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := newEngine(store, false)

	old := seedUnit(t, store, "v1", "l1", "AC001")
	fresh := seedUnit(t, store, "v1", "l1", "AC002")

	// age the first hold two days
	store.SetClock(func() time.Time { return time.Now().Add(-48 * time.Hour) })
	if _, err := store.ReserveUnits(ctx, []string{old.ID}, "cart-old", nil); err != nil {
		t.Fatalf("reserve old: %v", err)
	}
	store.SetClock(time.Now)
	if _, err := store.ReserveUnits(ctx, []string{fresh.ID}, "cart-new", nil); err != nil {
		t.Fatalf("reserve fresh: %v", err)
	}

	released, err := uc.SweepStale(ctx, 0)
	if err != nil {
		t.Fatalf("sweep stale: %v", err)
	}
	if released != 1 {
		t.Fatalf("expected only the aged hold released, got %d", released)
	}
}

func TestFulfillScopedToKey(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := newEngine(store, true)

	mine := seedUnit(t, store, "v1", "l1", "AC001")
	other := seedUnit(t, store, "v1", "l1", "AC002")

	if _, err := uc.Reserve(ctx, &dto.ReserveInput{ReservationKey: "cart-1", UnitID: mine.ID}); err != nil {
		t.Fatalf("reserve mine: %v", err)
	}
	if _, err := uc.Reserve(ctx, &dto.ReserveInput{ReservationKey: "cart-2", UnitID: other.ID}); err != nil {
		t.Fatalf("reserve other: %v", err)
	}

	result, err := uc.Fulfill(ctx, &dto.FulfillInput{
		ReservationKey: "cart-1",
		OrderID:        "order-1",
		BillID:         "bill-1",
		CustomerID:     "cust-1",
	})
	if err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	if result.Fulfilled != 1 || result.Units[0].ID != mine.ID {
		t.Fatalf("expected exactly my unit fulfilled, got %+v", result)
	}

	u, _ := store.GetByID(ctx, mine.ID)
	if u.Status != model.UnitSold {
		t.Fatalf("expected sold, got %s", u.Status)
	}
	if u.OrderID == nil || *u.OrderID != "order-1" || u.BillID == nil || *u.BillID != "bill-1" {
		t.Fatalf("sale metadata missing: %+v", u)
	}
	if u.ReservationKey != nil || u.ReservationExpiresAt != nil {
		t.Fatalf("reservation residue left on sold unit: %+v", u)
	}

	u, _ = store.GetByID(ctx, other.ID)
	if u.Status != model.UnitReserved {
		t.Fatal("other key's unit must stay reserved")
	}

	movements := store.Movements()
	if len(movements) != 1 {
		t.Fatalf("expected 1 sale movement, got %d", len(movements))
	}
	m := movements[0]
	if m.Direction != model.MovementOut || m.Quantity != 1 || m.ReferenceType != "sale" {
		t.Fatalf("unexpected movement: %+v", m)
	}
	if m.ReferenceID == nil || *m.ReferenceID != "order-1" {
		t.Fatalf("movement must reference the order: %+v", m)
	}
}

func TestConcurrentReserveNeverDoubleClaims(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := newEngine(store, true)

	const poolSize = 3
	for i := 0; i < poolSize; i++ {
		seedUnit(t, store, "v1", "l1", fmt.Sprintf("AC%03d", i+1))
	}

	const callers = 8
	results := make([]*dto.ReserveResult, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := uc.Reserve(ctx, &dto.ReserveInput{
				VariantID:      "v1",
				LocationID:     "l1",
				Quantity:       2,
				ReservationKey: fmt.Sprintf("cart-%d", i),
			})
			if err != nil {
				t.Errorf("reserve cart-%d: %v", i, err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	claimed := map[string]string{}
	total := 0
	for i, res := range results {
		if res == nil {
			continue
		}
		total += res.Reserved
		key := fmt.Sprintf("cart-%d", i)
		for _, u := range res.Units {
			if owner, taken := claimed[u.ID]; taken {
				t.Fatalf("unit %s claimed by both %s and %s", u.ID, owner, key)
			}
			claimed[u.ID] = key
		}
	}
	if total > poolSize {
		t.Fatalf("%d units reserved from a pool of %d", total, poolSize)
	}

	// the store agrees with the winners: one key per unit
	for id, owner := range claimed {
		u, _ := store.GetByID(ctx, id)
		if u.Status != model.UnitReserved || u.ReservationKey == nil || *u.ReservationKey != owner {
			t.Fatalf("unit %s owner mismatch: caller %s, store %+v", id, owner, u)
		}
	}
}

func TestFulfillEmptyKeyIsZero(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := newEngine(store, true)

	result, err := uc.Fulfill(ctx, &dto.FulfillInput{ReservationKey: "cart-ghost", OrderID: "order-1"})
	if err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	if result.Fulfilled != 0 {
		t.Fatalf("expired or unknown key must fulfill zero units, got %d", result.Fulfilled)
	}
}

func TestReverseToAvailableClearsResidue(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := newEngine(store, true)

	var ids []string
	for i := 0; i < 3; i++ {
		ids = append(ids, seedUnit(t, store, "v1", "l1", fmt.Sprintf("AC00%d", i+1)).ID)
	}
	if _, err := uc.Reserve(ctx, &dto.ReserveInput{
		VariantID: "v1", LocationID: "l1", Quantity: 3, ReservationKey: "cart-1",
	}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if _, err := uc.Fulfill(ctx, &dto.FulfillInput{ReservationKey: "cart-1", OrderID: "order-1"}); err != nil {
		t.Fatalf("fulfill: %v", err)
	}

	reverted, err := uc.ReverseToAvailable(ctx, "order-1", "admin-1")
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if reverted != 3 {
		t.Fatalf("expected 3 reverted, got %d", reverted)
	}

	for _, id := range ids {
		u, _ := store.GetByID(ctx, id)
		if u.Status != model.UnitAvailable {
			t.Fatalf("unit %s not back to available: %s", u.UnitCode, u.Status)
		}
		if u.OrderID != nil || u.BillID != nil || u.SoldToCustomerID != nil || u.ReservationKey != nil {
			t.Fatalf("sale residue left after reversal: %+v", u)
		}
	}

	movements := store.Movements()
	last := movements[len(movements)-1]
	if last.Direction != model.MovementIn || last.Quantity != 3 || last.ReferenceType != "sale_reversal" {
		t.Fatalf("expected compensating inbound movement, got %+v", last)
	}
}

func TestListHeldAndListSold(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := newEngine(store, true)

	seedUnit(t, store, "v1", "l1", "AC001")
	seedUnit(t, store, "v1", "l1", "AC002")

	if _, err := uc.Reserve(ctx, &dto.ReserveInput{
		VariantID: "v1", LocationID: "l1", Quantity: 2, ReservationKey: "cart-1",
	}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	held, err := uc.ListHeld(ctx, "cart-1")
	if err != nil {
		t.Fatalf("list held: %v", err)
	}
	if len(held) != 2 {
		t.Fatalf("expected 2 held units, got %d", len(held))
	}

	if _, err := uc.Fulfill(ctx, &dto.FulfillInput{ReservationKey: "cart-1", OrderID: "order-1"}); err != nil {
		t.Fatalf("fulfill: %v", err)
	}

	held, err = uc.ListHeld(ctx, "cart-1")
	if err != nil {
		t.Fatalf("list held after fulfill: %v", err)
	}
	if len(held) != 0 {
		t.Fatalf("fulfilled key must hold nothing, got %d units", len(held))
	}

	sold, err := uc.ListSold(ctx, "order-1")
	if err != nil {
		t.Fatalf("list sold: %v", err)
	}
	if len(sold) != 2 {
		t.Fatalf("expected 2 sold units for the order, got %d", len(sold))
	}
	for _, u := range sold {
		if u.Status != model.UnitSold {
			t.Fatalf("listed unit not sold: %+v", u)
		}
	}
}
