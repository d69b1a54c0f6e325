package listener

import (
	"context"
	"encoding/json"
	"errors"

	kafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/arkapos/stockunit-service/internal/reservation"
	"github.com/arkapos/stockunit-service/internal/reservation/dto"
	pkglogger "github.com/arkapos/stockunit-service/pkg/logger"
)

const (
	EventBillFinalized = "BillFinalized"
	EventBillDeleted   = "BillDeleted"
)

// BillingEvent is the envelope published by the billing service. The
// reservation key for finalized bills is the cart/session the POS used
// while building the order.
type BillingEvent struct {
	Type           string `json:"type"`
	BillID         string `json:"bill_id"`
	OrderID        string `json:"order_id"`
	CustomerID     string `json:"customer_id"`
	ReservationKey string `json:"reservation_key"`
	ActorID        string `json:"actor_id"`
	Notes          string `json:"notes"`
}

// Consumer is the slice of the broker the listener needs.
type Consumer interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// BillingListener converts billing lifecycle events into stock
// transitions: a finalized bill fulfills its reservation, a deleted bill
// puts sold units back on the shelf.
type BillingListener struct {
	consumer     Consumer
	reservations reservation.UseCase
	logger       pkglogger.ZapLogger
}

func NewBillingListener(consumer Consumer, reservations reservation.UseCase, log pkglogger.ZapLogger) *BillingListener {
	return &BillingListener{
		consumer:     consumer,
		reservations: reservations,
		logger:       log,
	}
}

// Run consumes until the context is cancelled. Malformed or unknown
// events are logged and skipped; the loop never dies on a bad message.
func (l *BillingListener) Run(ctx context.Context) {
	l.logger.Info("billing listener started")
	for {
		msg, err := l.consumer.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				l.logger.Info("billing listener stopped")
				return
			}
			l.logger.Error("failed to read billing event", zap.Error(err))
			continue
		}
		l.handle(ctx, msg.Value)
	}
}

func (l *BillingListener) handle(ctx context.Context, payload []byte) {
	var event BillingEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		l.logger.Warn("discarding malformed billing event", zap.Error(err))
		return
	}

	switch event.Type {
	case EventBillFinalized:
		if event.ReservationKey == "" || event.OrderID == "" {
			l.logger.Warn("bill finalized event missing reservation key or order id",
				zap.String("bill_id", event.BillID))
			return
		}
		result, err := l.reservations.Fulfill(ctx, &dto.FulfillInput{
			ReservationKey: event.ReservationKey,
			OrderID:        event.OrderID,
			BillID:         event.BillID,
			CustomerID:     event.CustomerID,
			Notes:          event.Notes,
			ActorID:        event.ActorID,
		})
		if err != nil {
			l.logger.Error("failed to fulfill reservation for finalized bill",
				zap.String("bill_id", event.BillID),
				zap.String("reservation_key", event.ReservationKey),
				zap.Error(err),
			)
			return
		}
		l.logger.Info("fulfilled reservation for finalized bill",
			zap.String("bill_id", event.BillID),
			zap.Int("units", result.Fulfilled),
		)

	case EventBillDeleted:
		if event.OrderID == "" {
			l.logger.Warn("bill deleted event missing order id", zap.String("bill_id", event.BillID))
			return
		}
		reverted, err := l.reservations.ReverseToAvailable(ctx, event.OrderID, event.ActorID)
		if err != nil {
			l.logger.Error("failed to reverse sale for deleted bill",
				zap.String("bill_id", event.BillID),
				zap.String("order_id", event.OrderID),
				zap.Error(err),
			)
			return
		}
		l.logger.Info("reversed sale for deleted bill",
			zap.String("bill_id", event.BillID),
			zap.Int64("units", reverted),
		)

	default:
		l.logger.Debug("ignoring billing event", zap.String("type", event.Type))
	}
}
