package logger

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arkapos/stockunit-service/internal/model"
	"github.com/arkapos/stockunit-service/internal/movement"
	pkglogger "github.com/arkapos/stockunit-service/pkg/logger"
)

// Publisher is the slice of the message broker the logger needs.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

// Indexer is the slice of the search backend the logger needs.
type Indexer interface {
	Index(ctx context.Context, index, docID string, body []byte) error
}

// Invalidator drops cached listings once a write lands.
type Invalidator interface {
	InvalidatePattern(ctx context.Context, pattern string) error
}

const movementIndex = "stock-movements"

// MovementLogger persists, publishes and indexes movements best-effort.
// Every failure is logged and swallowed; the primary stock operation never
// sees an error from here.
type MovementLogger struct {
	repo     movement.Repository
	producer Publisher   // may be nil
	search   Indexer     // may be nil
	cache    Invalidator // may be nil
	logger   pkglogger.ZapLogger
	now      func() time.Time
}

func NewMovementLogger(repo movement.Repository, producer Publisher, search Indexer, cache Invalidator, log pkglogger.ZapLogger) *MovementLogger {
	return &MovementLogger{
		repo:     repo,
		producer: producer,
		search:   search,
		cache:    cache,
		logger:   log,
		now:      time.Now,
	}
}

func (l *MovementLogger) LogMovement(ctx context.Context, e movement.Entry) {
	var refID *string
	if e.ReferenceID != "" {
		refID = &e.ReferenceID
	}
	var actorID *string
	if e.ActorID != "" {
		actorID = &e.ActorID
	}

	m := &model.StockMovement{
		ID:            uuid.New().String(),
		VariantID:     e.VariantID,
		LocationID:    e.LocationID,
		Direction:     e.Direction,
		Quantity:      e.Quantity,
		UnitCodes:     strings.Join(e.UnitCodes, ","),
		ReferenceType: e.ReferenceType,
		ReferenceID:   refID,
		Notes:         e.Notes,
		ActorID:       actorID,
		CreatedAt:     l.now(),
	}

	if err := l.repo.Insert(ctx, m); err != nil {
		l.logger.Warn("failed to record stock movement",
			zap.String("variant_id", e.VariantID),
			zap.String("reference_type", e.ReferenceType),
			zap.Error(err),
		)
	} else if l.cache != nil {
		if err := l.cache.InvalidatePattern(ctx, movement.ListCachePrefix+"*"); err != nil {
			l.logger.Warn("failed to invalidate movement list cache", zap.Error(err))
		}
	}

	if l.producer != nil {
		payload, err := json.Marshal(m)
		if err == nil {
			err = l.producer.Publish(ctx, []byte(m.VariantID), payload)
		}
		if err != nil {
			l.logger.Warn("failed to publish stock movement event", zap.Error(err))
		}
	}

	if l.search != nil {
		doc, err := json.Marshal(m)
		if err == nil {
			err = l.search.Index(ctx, movementIndex, m.ID, doc)
		}
		if err != nil {
			l.logger.Warn("failed to index stock movement", zap.Error(err))
		}
	}
}
