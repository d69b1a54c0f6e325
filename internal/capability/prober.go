package capability

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/arkapos/stockunit-service/pkg/logger"
)

// pgUndefinedColumn is the Postgres error code for "unknown column". It is
// the one probe outcome treated as a definitive "unsupported".
const pgUndefinedColumn = "42703"

// Prober answers whether the storage schema can track reservation expiry.
// Every time-bounded-hold decision branches on this single flag instead of
// re-deriving it from error codes at each call site.
type Prober interface {
	SupportsReservationExpiry(ctx context.Context) bool
}

type dbProber struct {
	db     *sqlx.DB
	logger logger.ZapLogger

	once      sync.Once
	supported bool
}

func NewDBProber(db *sqlx.DB, log logger.ZapLogger) Prober {
	return &dbProber{db: db, logger: log}
}

// SupportsReservationExpiry probes on first use and memoizes the answer for
// the process lifetime. Any probe failure other than "unknown column" is
// also treated as unsupported: the system degrades to time-unbounded holds
// rather than crashing.
func (p *dbProber) SupportsReservationExpiry(ctx context.Context) bool {
	p.once.Do(func() {
		var expiry interface{}
		err := p.db.GetContext(ctx, &expiry,
			`SELECT reservation_expires_at FROM stock_units LIMIT 1`)

		switch {
		case err == nil:
			p.supported = true
		case isUndefinedColumn(err):
			p.supported = false
			p.logger.Warn("schema has no reservation_expires_at column, holds will not expire")
		case errors.Is(err, sql.ErrNoRows):
			// Empty table still proves the column exists.
			p.supported = true
		default:
			p.supported = false
			p.logger.Warn("reservation expiry probe failed, assuming unsupported", zap.Error(err))
		}
	})
	return p.supported
}

func isUndefinedColumn(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUndefinedColumn
}

// Static is a fixed-answer prober for tests and for stores that declare
// their capability up front.
type Static bool

func (s Static) SupportsReservationExpiry(context.Context) bool { return bool(s) }
