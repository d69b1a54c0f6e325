package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arkapos/stockunit-service/config"
	"github.com/arkapos/stockunit-service/internal/capability"
	"github.com/arkapos/stockunit-service/internal/model"
	"github.com/arkapos/stockunit-service/internal/movement"
	"github.com/arkapos/stockunit-service/internal/reservation"
	"github.com/arkapos/stockunit-service/internal/reservation/dto"
	"github.com/arkapos/stockunit-service/internal/stockunit"
	sudto "github.com/arkapos/stockunit-service/internal/stockunit/dto"
	pkglogger "github.com/arkapos/stockunit-service/pkg/logger"
)

type reservationUseCase struct {
	units     stockunit.Repository
	prober    capability.Prober
	movements movement.Logger
	cfg       config.ReservationConfig
	logger    pkglogger.ZapLogger
	now       func() time.Time
}

func NewReservationUseCase(
	units stockunit.Repository,
	prober capability.Prober,
	movements movement.Logger,
	cfg config.ReservationConfig,
	log pkglogger.ZapLogger,
) reservation.UseCase {
	return &reservationUseCase{
		units:     units,
		prober:    prober,
		movements: movements,
		cfg:       cfg,
		logger:    log,
		now:       time.Now,
	}
}

func (uc *reservationUseCase) Reserve(ctx context.Context, input *dto.ReserveInput) (*dto.ReserveResult, error) {
	if input.ReservationKey == "" {
		return nil, fmt.Errorf("reservation key is required")
	}

	var candidateIDs []string
	requested := input.Quantity

	switch {
	case input.UnitID != "":
		candidateIDs = []string{input.UnitID}
		requested = 1
	case input.UnitCode != "":
		requested = 1
		unit, err := uc.units.GetByCode(ctx, stockunit.NormalizeCode(input.UnitCode))
		if err != nil {
			return nil, err
		}
		if unit != nil {
			candidateIDs = []string{unit.ID}
		}
	default:
		if requested <= 0 {
			return nil, fmt.Errorf("quantity must be positive")
		}
		available, err := uc.units.SelectAvailable(ctx, input.VariantID, input.LocationID, requested)
		if err != nil {
			return nil, err
		}
		for _, u := range available {
			candidateIDs = append(candidateIDs, u.ID)
		}
	}

	result := &dto.ReserveResult{Requested: requested, Units: []dto.ReservedUnit{}}
	if len(candidateIDs) == 0 {
		return result, nil
	}

	reserved, err := uc.units.ReserveUnits(ctx, candidateIDs, input.ReservationKey, uc.expiry(ctx, input.TTLSeconds))
	if err != nil {
		return nil, err
	}

	result.Reserved = len(reserved)
	for _, u := range reserved {
		result.Units = append(result.Units, dto.ReservedUnit{ID: u.ID, UnitCode: u.UnitCode})
	}
	if result.Reserved < result.Requested {
		uc.logger.Info("reservation partially fulfilled",
			zap.String("reservation_key", input.ReservationKey),
			zap.Int("requested", result.Requested),
			zap.Int("reserved", result.Reserved),
		)
	}
	return result, nil
}

// expiry returns the hold deadline, or nil when the schema cannot store it.
func (uc *reservationUseCase) expiry(ctx context.Context, ttlSeconds int) *time.Time {
	if !uc.prober.SupportsReservationExpiry(ctx) {
		return nil
	}
	if ttlSeconds <= 0 {
		ttlSeconds = uc.cfg.DefaultTTLSeconds
	}
	t := uc.now().Add(time.Duration(ttlSeconds) * time.Second)
	return &t
}

func (uc *reservationUseCase) Release(ctx context.Context, reservationKey string) (int64, error) {
	if reservationKey == "" {
		return 0, nil
	}
	return uc.units.ReleaseByKey(ctx, reservationKey)
}

func (uc *reservationUseCase) ReleaseUnits(ctx context.Context, unitIDs []string) (int64, error) {
	if len(unitIDs) == 0 {
		return 0, nil
	}
	return uc.units.ReleaseUnits(ctx, unitIDs)
}

func (uc *reservationUseCase) ListHeld(ctx context.Context, reservationKey string) ([]model.StockUnit, error) {
	if reservationKey == "" {
		return []model.StockUnit{}, nil
	}
	return uc.units.ListByReservationKey(ctx, reservationKey)
}

func (uc *reservationUseCase) ListSold(ctx context.Context, orderID string) ([]model.StockUnit, error) {
	if orderID == "" {
		return []model.StockUnit{}, nil
	}
	return uc.units.ListSoldByOrder(ctx, orderID)
}

func (uc *reservationUseCase) SweepExpired(ctx context.Context) (int64, error) {
	if !uc.prober.SupportsReservationExpiry(ctx) {
		return 0, nil
	}
	released, err := uc.units.SweepExpired(ctx, uc.now())
	if err != nil {
		return 0, err
	}
	if released > 0 {
		uc.logger.Info("released expired reservations", zap.Int64("count", released))
	}
	return released, nil
}

func (uc *reservationUseCase) SweepStale(ctx context.Context, olderThanHours int) (int64, error) {
	if olderThanHours <= 0 {
		olderThanHours = uc.cfg.StaleAfterHours
	}
	cutoff := uc.now().Add(-time.Duration(olderThanHours) * time.Hour)
	released, err := uc.units.SweepStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if released > 0 {
		uc.logger.Info("released stale reservations",
			zap.Int("older_than_hours", olderThanHours),
			zap.Int64("count", released),
		)
	}
	return released, nil
}

func (uc *reservationUseCase) Fulfill(ctx context.Context, input *dto.FulfillInput) (*dto.FulfillResult, error) {
	if input.ReservationKey == "" {
		return nil, fmt.Errorf("reservation key is required")
	}
	if input.OrderID == "" {
		return nil, fmt.Errorf("order id is required")
	}

	sale := sudto.SaleFields{OrderID: input.OrderID}
	if input.BillID != "" {
		sale.BillID = &input.BillID
	}
	if input.CustomerID != "" {
		sale.CustomerID = &input.CustomerID
	}
	if input.Notes != "" {
		sale.Notes = &input.Notes
	}

	sold, err := uc.units.FulfillByKey(ctx, input.ReservationKey, sale)
	if err != nil {
		return nil, err
	}

	result := &dto.FulfillResult{Fulfilled: len(sold), Units: []dto.ReservedUnit{}}
	for _, u := range sold {
		result.Units = append(result.Units, dto.ReservedUnit{ID: u.ID, UnitCode: u.UnitCode})
	}

	for _, e := range movement.EntriesFromUnits(sold, model.MovementOut, "sale", input.OrderID, input.Notes, input.ActorID) {
		uc.movements.LogMovement(ctx, e)
	}
	return result, nil
}

func (uc *reservationUseCase) ReverseToAvailable(ctx context.Context, orderID, actorID string) (int64, error) {
	if orderID == "" {
		return 0, nil
	}
	reverted, err := uc.units.RevertSoldByOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	for _, e := range movement.EntriesFromUnits(reverted, model.MovementIn, "sale_reversal", orderID, "", actorID) {
		uc.movements.LogMovement(ctx, e)
	}
	return int64(len(reverted)), nil
}
