// Package memstore is an in-memory implementation of the repository
// contracts. It mirrors the conditional-update semantics of the Postgres
// repositories under a single mutex and backs the usecase tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/arkapos/stockunit-service/internal/model"
	movdto "github.com/arkapos/stockunit-service/internal/movement/dto"
	pairdto "github.com/arkapos/stockunit-service/internal/pair/dto"
	"github.com/arkapos/stockunit-service/internal/stockunit/dto"
)

type Store struct {
	mu sync.Mutex

	// SupportsExpiry mimics whether the schema has the expiry column.
	SupportsExpiry bool

	units     map[string]*model.StockUnit
	unitSeq   map[string]int64
	pairs     map[string]*model.StockUnitPair
	bills     map[string]*model.Bill
	entries   map[string]*model.PaymentEntry
	movements []model.StockMovement

	seq int64
	now func() time.Time
}

func New() *Store {
	return &Store{
		SupportsExpiry: true,
		units:          map[string]*model.StockUnit{},
		unitSeq:        map[string]int64{},
		pairs:          map[string]*model.StockUnitPair{},
		bills:          map[string]*model.Bill{},
		entries:        map[string]*model.PaymentEntry{},
		now:            time.Now,
	}
}

// SetClock overrides the stale-timestamp clock. Tests use it to age holds.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

func copyUnit(u *model.StockUnit) model.StockUnit { return *u }

// ---- stockunit.Repository ----

func (s *Store) Create(_ context.Context, unit *model.StockUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.units {
		if u.UnitCode == unit.UnitCode {
			return fmt.Errorf("duplicate key value violates unique constraint on unit_code %q", unit.UnitCode)
		}
	}
	c := *unit
	s.units[c.ID] = &c
	s.seq++
	s.unitSeq[c.ID] = s.seq
	return nil
}

func (s *Store) GetByID(_ context.Context, id string) (*model.StockUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.units[id]; ok {
		c := copyUnit(u)
		return &c, nil
	}
	return nil, nil
}

func (s *Store) GetByCode(_ context.Context, code string) (*model.StockUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.units {
		if u.UnitCode == code {
			c := copyUnit(u)
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Store) ListByIDs(_ context.Context, ids []string) ([]model.StockUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.StockUnit{}
	for _, id := range ids {
		if u, ok := s.units[id]; ok {
			out = append(out, copyUnit(u))
		}
	}
	return out, nil
}

func (s *Store) ListByReservationKey(_ context.Context, key string) ([]model.StockUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.StockUnit{}
	for _, u := range s.unitsInOrder() {
		if u.Status == model.UnitReserved && u.ReservationKey != nil && *u.ReservationKey == key {
			out = append(out, copyUnit(u))
		}
	}
	return out, nil
}

func (s *Store) ListSoldByOrder(_ context.Context, orderID string) ([]model.StockUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.StockUnit{}
	for _, u := range s.unitsInOrder() {
		if u.Status == model.UnitSold && u.OrderID != nil && *u.OrderID == orderID {
			out = append(out, copyUnit(u))
		}
	}
	return out, nil
}

func (s *Store) Count(_ context.Context, variantID, locationID string, status *model.UnitStatus) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, u := range s.units {
		if u.VariantID != variantID || u.LocationID != locationID {
			continue
		}
		if status != nil && u.Status != *status {
			continue
		}
		count++
	}
	return count, nil
}

func (s *Store) CodeExists(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.units {
		if u.UnitCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) UpdateFields(_ context.Context, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.units[id]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "variant_id":
			u.VariantID = v.(string)
		case "location_id":
			u.LocationID = v.(string)
		case "unit_code":
			u.UnitCode = v.(string)
		case "notes":
			switch n := v.(type) {
			case string:
				u.Notes = &n
			case *string:
				u.Notes = n
			}
		}
	}
	u.UpdatedAt = s.now()
	return nil
}

func (s *Store) DeleteAvailable(_ context.Context, ids []string) ([]model.StockUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.StockUnit{}
	for _, id := range ids {
		if u, ok := s.units[id]; ok && u.Status == model.UnitAvailable {
			out = append(out, copyUnit(u))
			delete(s.units, id)
			delete(s.unitSeq, id)
		}
	}
	return out, nil
}

func (s *Store) DamageAvailable(_ context.Context, ids []string, reason string) ([]model.StockUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.StockUnit{}
	for _, id := range ids {
		if u, ok := s.units[id]; ok && u.Status == model.UnitAvailable {
			u.Status = model.UnitDamaged
			r := reason
			u.Notes = &r
			u.UpdatedAt = s.now()
			out = append(out, copyUnit(u))
		}
	}
	return out, nil
}

func (s *Store) SelectAvailable(_ context.Context, variantID, locationID string, limit int) ([]model.StockUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.StockUnit{}
	for _, u := range s.unitsInOrder() {
		if len(out) >= limit {
			break
		}
		if u.VariantID != variantID || u.LocationID != locationID {
			continue
		}
		if u.Status != model.UnitAvailable || u.ReservationKey != nil {
			continue
		}
		if s.pairedLocked(u.ID) {
			continue
		}
		out = append(out, copyUnit(u))
	}
	return out, nil
}

func (s *Store) ReserveUnits(_ context.Context, ids []string, key string, expiresAt *time.Time) ([]model.StockUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.StockUnit{}
	for _, id := range ids {
		u, ok := s.units[id]
		if !ok || u.Status != model.UnitAvailable || u.ReservationKey != nil {
			continue
		}
		k := key
		u.Status = model.UnitReserved
		u.ReservationKey = &k
		if s.SupportsExpiry && expiresAt != nil {
			e := *expiresAt
			u.ReservationExpiresAt = &e
		}
		u.UpdatedAt = s.now()
		out = append(out, copyUnit(u))
	}
	return out, nil
}

func (s *Store) releaseLocked(u *model.StockUnit) {
	u.Status = model.UnitAvailable
	u.ReservationKey = nil
	if s.SupportsExpiry {
		u.ReservationExpiresAt = nil
	}
	u.UpdatedAt = s.now()
}

func (s *Store) ReleaseByKey(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.units {
		if u.Status == model.UnitReserved && u.ReservationKey != nil && *u.ReservationKey == key {
			s.releaseLocked(u)
			n++
		}
	}
	return n, nil
}

func (s *Store) ReleaseUnits(_ context.Context, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if u, ok := s.units[id]; ok && u.Status == model.UnitReserved {
			s.releaseLocked(u)
			n++
		}
	}
	return n, nil
}

func (s *Store) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.SupportsExpiry {
		return 0, nil
	}
	var n int64
	for _, u := range s.units {
		if u.Status == model.UnitReserved && u.ReservationExpiresAt != nil && u.ReservationExpiresAt.Before(now) {
			s.releaseLocked(u)
			n++
		}
	}
	return n, nil
}

func (s *Store) SweepStale(_ context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.units {
		if u.Status == model.UnitReserved && u.UpdatedAt.Before(olderThan) {
			s.releaseLocked(u)
			n++
		}
	}
	return n, nil
}

func (s *Store) sellLocked(u *model.StockUnit, sale dto.SaleFields) {
	o := sale.OrderID
	u.Status = model.UnitSold
	u.OrderID = &o
	u.BillID = sale.BillID
	u.SoldToCustomerID = sale.CustomerID
	if sale.Notes != nil {
		u.Notes = sale.Notes
	}
	u.ReservationKey = nil
	if s.SupportsExpiry {
		u.ReservationExpiresAt = nil
	}
	u.UpdatedAt = s.now()
}

func (s *Store) FulfillByKey(_ context.Context, key string, sale dto.SaleFields) ([]model.StockUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.StockUnit{}
	for _, u := range s.unitsInOrder() {
		if u.Status == model.UnitReserved && u.ReservationKey != nil && *u.ReservationKey == key {
			s.sellLocked(u, sale)
			out = append(out, copyUnit(u))
		}
	}
	return out, nil
}

func (s *Store) MarkSold(_ context.Context, ids []string, sale dto.SaleFields) ([]model.StockUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.StockUnit{}
	for _, id := range ids {
		u, ok := s.units[id]
		if !ok || (u.Status != model.UnitAvailable && u.Status != model.UnitReserved) {
			continue
		}
		s.sellLocked(u, sale)
		out = append(out, copyUnit(u))
	}
	return out, nil
}

func (s *Store) RevertSoldByOrder(_ context.Context, orderID string) ([]model.StockUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.StockUnit{}
	for _, u := range s.unitsInOrder() {
		if u.Status == model.UnitSold && u.OrderID != nil && *u.OrderID == orderID {
			u.Status = model.UnitAvailable
			u.OrderID = nil
			u.BillID = nil
			u.SoldToCustomerID = nil
			u.ReservationKey = nil
			if s.SupportsExpiry {
				u.ReservationExpiresAt = nil
			}
			u.UpdatedAt = s.now()
			out = append(out, copyUnit(u))
		}
	}
	return out, nil
}

func (s *Store) AvailabilityCounts(_ context.Context, pools []dto.VariantLocation, now time.Time) ([]dto.AvailabilityRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := []dto.AvailabilityRow{}
	for _, p := range pools {
		row := dto.AvailabilityRow{VariantID: p.VariantID, LocationID: p.LocationID}
		matched := false
		for _, u := range s.units {
			if u.VariantID != p.VariantID || u.LocationID != p.LocationID {
				continue
			}
			matched = true
			switch u.Status {
			case model.UnitAvailable:
				row.OnHand++
				row.Available++
			case model.UnitReserved:
				row.OnHand++
				if !s.SupportsExpiry || u.ReservationExpiresAt == nil || u.ReservationExpiresAt.After(now) {
					row.Held++
				}
			}
		}
		if matched {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// unitsInOrder returns units oldest-first (creation order).
func (s *Store) unitsInOrder() []*model.StockUnit {
	out := make([]*model.StockUnit, 0, len(s.units))
	for _, u := range s.units {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		return s.unitSeq[out[i].ID] < s.unitSeq[out[j].ID]
	})
	return out
}

func (s *Store) pairedLocked(unitID string) bool {
	for _, p := range s.pairs {
		if p.PrimaryUnitID == unitID || p.SecondaryUnitID == unitID {
			return true
		}
	}
	return false
}

// ---- pair.Repository ----

func (s *Store) CreatePair(_ context.Context, p *model.StockUnitPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *p
	s.pairs[c.ID] = &c
	return nil
}

func (s *Store) GetPairByID(_ context.Context, id string) (*model.StockUnitPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pairs[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, nil
}

func (s *Store) GetByCombinedCode(_ context.Context, code string) (*model.StockUnitPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pairs {
		if p.CombinedCode == code {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Store) FindByComponent(_ context.Context, unitID string) (*model.StockUnitPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pairs {
		if p.PrimaryUnitID == unitID || p.SecondaryUnitID == unitID {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Store) CombinedCodeExists(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pairs {
		if p.CombinedCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ReservePair(_ context.Context, id, key string, expiresAt *time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pairs[id]
	if !ok || p.Status != model.PairAvailable || p.ReservationKey != nil {
		return false, nil
	}
	k := key
	p.Status = model.PairReserved
	p.ReservationKey = &k
	if s.SupportsExpiry && expiresAt != nil {
		e := *expiresAt
		p.ReservationExpiresAt = &e
	}
	p.UpdatedAt = s.now()
	return true, nil
}

func (s *Store) releasePairLocked(p *model.StockUnitPair) {
	p.Status = model.PairAvailable
	p.ReservationKey = nil
	if s.SupportsExpiry {
		p.ReservationExpiresAt = nil
	}
	p.UpdatedAt = s.now()
}

func (s *Store) ReleasePair(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pairs[id]
	if !ok || p.Status != model.PairReserved {
		return false, nil
	}
	s.releasePairLocked(p)
	return true, nil
}

func (s *Store) ReleasePairsByKey(_ context.Context, key string) ([]model.StockUnitPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.StockUnitPair{}
	for _, p := range s.pairs {
		if p.Status == model.PairReserved && p.ReservationKey != nil && *p.ReservationKey == key {
			s.releasePairLocked(p)
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *Store) SellPair(_ context.Context, id string, sale pairdto.PairSaleFields) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pairs[id]
	if !ok || (p.Status != model.PairAvailable && p.Status != model.PairReserved) {
		return false, nil
	}
	o := sale.OrderID
	p.Status = model.PairSold
	p.OrderID = &o
	p.BillID = sale.BillID
	p.ReservationKey = nil
	if s.SupportsExpiry {
		p.ReservationExpiresAt = nil
	}
	p.UpdatedAt = s.now()
	return true, nil
}

func (s *Store) DeletePair(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pairs[id]
	if !ok || p.Status == model.PairSold {
		return false, nil
	}
	delete(s.pairs, id)
	return true, nil
}

// ---- payment.Repository ----

// PutBill seeds or replaces a bill. Test helper; bills themselves are
// created by the billing module, outside this service.
func (s *Store) PutBill(b *model.Bill) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *b
	s.bills[c.ID] = &c
}

func (s *Store) GetBill(_ context.Context, id string) (*model.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bills[id]; ok {
		c := *b
		return &c, nil
	}
	return nil, nil
}

func (s *Store) SetBillPaymentState(_ context.Context, billID string, remaining float64, status model.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bills[billID]; ok {
		b.RemainingAmount = remaining
		b.PaymentStatus = status
		b.UpdatedAt = s.now()
	}
	return nil
}

func (s *Store) CreateEntry(_ context.Context, e *model.PaymentEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *e
	s.entries[c.ID] = &c
	return nil
}

func (s *Store) GetEntry(_ context.Context, id string) (*model.PaymentEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		c := *e
		return &c, nil
	}
	return nil, nil
}

func (s *Store) UpdateEntry(_ context.Context, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "amount":
			e.Amount = v.(float64)
		case "method":
			e.Method = v.(string)
		case "payment_date":
			e.PaymentDate = v.(time.Time)
		case "reference":
			switch r := v.(type) {
			case string:
				e.Reference = &r
			case *string:
				e.Reference = r
			}
		}
	}
	return nil
}

func (s *Store) DeleteEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *Store) ListEntries(_ context.Context, billID string) ([]model.PaymentEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.PaymentEntry{}
	for _, e := range s.entries {
		if e.BillID == billID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) SumEntries(_ context.Context, billID string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum float64
	for _, e := range s.entries {
		if e.BillID == billID {
			sum += e.Amount
		}
	}
	return sum, nil
}

// ---- movement.Repository ----

func (s *Store) Insert(_ context.Context, m *model.StockMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movements = append(s.movements, *m)
	return nil
}

func (s *Store) List(_ context.Context, f *movdto.MovementFilters) ([]model.StockMovement, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.StockMovement{}
	for _, m := range s.movements {
		if f.VariantID != "" && m.VariantID != f.VariantID {
			continue
		}
		if f.LocationID != "" && m.LocationID != f.LocationID {
			continue
		}
		if f.Direction != "" && string(m.Direction) != f.Direction {
			continue
		}
		if f.ReferenceType != "" && !strings.EqualFold(m.ReferenceType, f.ReferenceType) {
			continue
		}
		out = append(out, m)
	}
	return out, len(out), nil
}

// Movements returns everything recorded so far. Test helper.
func (s *Store) Movements() []model.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.StockMovement, len(s.movements))
	copy(out, s.movements)
	return out
}

// PairRepo adapts the store to the pair repository contract; the pair and
// unit contracts share method names, so pairs get their own receiver.
type PairRepo struct {
	s *Store
}

func (s *Store) Pairs() *PairRepo { return &PairRepo{s: s} }

func (r *PairRepo) Create(ctx context.Context, p *model.StockUnitPair) error {
	return r.s.CreatePair(ctx, p)
}

func (r *PairRepo) GetByID(ctx context.Context, id string) (*model.StockUnitPair, error) {
	return r.s.GetPairByID(ctx, id)
}

func (r *PairRepo) GetByCombinedCode(ctx context.Context, code string) (*model.StockUnitPair, error) {
	return r.s.GetByCombinedCode(ctx, code)
}

func (r *PairRepo) FindByComponent(ctx context.Context, unitID string) (*model.StockUnitPair, error) {
	return r.s.FindByComponent(ctx, unitID)
}

func (r *PairRepo) CombinedCodeExists(ctx context.Context, code string) (bool, error) {
	return r.s.CombinedCodeExists(ctx, code)
}

func (r *PairRepo) Reserve(ctx context.Context, id, key string, expiresAt *time.Time) (bool, error) {
	return r.s.ReservePair(ctx, id, key, expiresAt)
}

func (r *PairRepo) Release(ctx context.Context, id string) (bool, error) {
	return r.s.ReleasePair(ctx, id)
}

func (r *PairRepo) ReleaseByKey(ctx context.Context, key string) ([]model.StockUnitPair, error) {
	return r.s.ReleasePairsByKey(ctx, key)
}

func (r *PairRepo) Sell(ctx context.Context, id string, sale pairdto.PairSaleFields) (bool, error) {
	return r.s.SellPair(ctx, id, sale)
}

func (r *PairRepo) Delete(ctx context.Context, id string) (bool, error) {
	return r.s.DeletePair(ctx, id)
}
