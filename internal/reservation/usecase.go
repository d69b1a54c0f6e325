package reservation

import (
	"context"

	"github.com/arkapos/stockunit-service/internal/model"
	"github.com/arkapos/stockunit-service/internal/reservation/dto"
)

// UseCase is the reservation engine over individual stock units. Holds are
// grouped by an opaque reservation key (usually a cart or order id), and
// every transition tolerates concurrent callers: whoever wins the
// conditional update owns the unit, everyone else simply gets fewer rows.
type UseCase interface {
	// Reserve claims up to Quantity available units for the key. Partial
	// fulfillment is a normal outcome.
	Reserve(ctx context.Context, input *dto.ReserveInput) (*dto.ReserveResult, error)
	// Release frees every unit held under the key. Releasing an unknown
	// or already-released key is a no-op.
	Release(ctx context.Context, reservationKey string) (int64, error)
	// ReleaseUnits frees the given units regardless of which key holds
	// them. Units not currently reserved are skipped.
	ReleaseUnits(ctx context.Context, unitIDs []string) (int64, error)
	// ListHeld returns the units currently held under the key.
	ListHeld(ctx context.Context, reservationKey string) ([]model.StockUnit, error)
	// ListSold returns the units sold under the order.
	ListSold(ctx context.Context, orderID string) ([]model.StockUnit, error)
	// SweepExpired releases holds past their expiry. Returns zero when
	// the schema cannot track expiry.
	SweepExpired(ctx context.Context) (int64, error)
	// SweepStale releases holds older than the given age in hours; zero
	// uses the configured default. This is the reclaim path for schemas
	// without expiry tracking.
	SweepStale(ctx context.Context, olderThanHours int) (int64, error)
	// Fulfill converts every unit held under the key into a sale. Zero
	// fulfilled units is valid: the hold may have expired or been swept.
	Fulfill(ctx context.Context, input *dto.FulfillInput) (*dto.FulfillResult, error)
	// ReverseToAvailable returns all units sold under the order back to
	// stock, clearing sale and reservation residue.
	ReverseToAvailable(ctx context.Context, orderID, actorID string) (int64, error)
}
