package movement

import (
	"context"

	"github.com/arkapos/stockunit-service/internal/model"
)

// Entry describes one stock change to record.
type Entry struct {
	VariantID     string
	LocationID    string
	Direction     model.MovementDirection
	Quantity      int
	UnitCodes     []string
	ReferenceType string
	ReferenceID   string
	Notes         string
	ActorID       string
}

// Logger records stock movements as a non-critical side effect. The call
// has no error return on purpose: implementations catch everything, and a
// failed movement log must never fail the primary operation.
type Logger interface {
	LogMovement(ctx context.Context, e Entry)
}

// Nop discards every movement. Used where audit logging is not wired.
type Nop struct{}

func (Nop) LogMovement(context.Context, Entry) {}

// EntriesFromUnits groups units into one entry per (variant, location)
// pool, since movement accounting is per physical unit pool.
func EntriesFromUnits(units []model.StockUnit, direction model.MovementDirection, refType, refID, notes, actorID string) []Entry {
	type pool struct{ variantID, locationID string }
	grouped := map[pool][]string{}
	order := []pool{}
	for _, u := range units {
		p := pool{u.VariantID, u.LocationID}
		if _, ok := grouped[p]; !ok {
			order = append(order, p)
		}
		grouped[p] = append(grouped[p], u.UnitCode)
	}

	entries := make([]Entry, 0, len(order))
	for _, p := range order {
		codes := grouped[p]
		entries = append(entries, Entry{
			VariantID:     p.variantID,
			LocationID:    p.locationID,
			Direction:     direction,
			Quantity:      len(codes),
			UnitCodes:     codes,
			ReferenceType: refType,
			ReferenceID:   refID,
			Notes:         notes,
			ActorID:       actorID,
		})
	}
	return entries
}
