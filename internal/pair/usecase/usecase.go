package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arkapos/stockunit-service/config"
	"github.com/arkapos/stockunit-service/internal/capability"
	"github.com/arkapos/stockunit-service/internal/model"
	"github.com/arkapos/stockunit-service/internal/movement"
	"github.com/arkapos/stockunit-service/internal/pair"
	"github.com/arkapos/stockunit-service/internal/pair/dto"
	"github.com/arkapos/stockunit-service/internal/stockunit"
	sudto "github.com/arkapos/stockunit-service/internal/stockunit/dto"
	pkglogger "github.com/arkapos/stockunit-service/pkg/logger"
)

// Locker guards the check-then-insert window of pair creation. A nil
// Locker disables locking; the unique combined code constraint still
// backstops duplicates.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

const pairLockTTL = 5 * time.Second

type pairUseCase struct {
	pairs     pair.Repository
	units     stockunit.Repository
	prober    capability.Prober
	movements movement.Logger
	locker    Locker
	cfg       config.ReservationConfig
	logger    pkglogger.ZapLogger
	now       func() time.Time
}

func NewPairUseCase(
	pairs pair.Repository,
	units stockunit.Repository,
	prober capability.Prober,
	movements movement.Logger,
	locker Locker,
	cfg config.ReservationConfig,
	log pkglogger.ZapLogger,
) pair.UseCase {
	return &pairUseCase{
		pairs:     pairs,
		units:     units,
		prober:    prober,
		movements: movements,
		locker:    locker,
		cfg:       cfg,
		logger:    log,
		now:       time.Now,
	}
}

func (uc *pairUseCase) CreatePair(ctx context.Context, input *dto.CreatePairInput) (*model.StockUnitPair, error) {
	if input.PrimaryUnitID == "" || input.SecondaryUnitID == "" {
		return nil, fmt.Errorf("both component unit ids are required")
	}
	if input.PrimaryUnitID == input.SecondaryUnitID {
		return nil, pair.ErrComponentUnavailable
	}

	code := stockunit.NormalizeCode(input.CombinedCode)
	if code == "" {
		return nil, fmt.Errorf("combined code is required")
	}

	if uc.locker != nil {
		ids := []string{input.PrimaryUnitID, input.SecondaryUnitID}
		sort.Strings(ids)
		lockKey := fmt.Sprintf("lock:pair:%s:%s", ids[0], ids[1])
		lockVal := uuid.New().String()
		ok, err := uc.locker.AcquireLock(ctx, lockKey, lockVal, pairLockTTL)
		if err != nil {
			uc.logger.Warn("pair creation lock unavailable, proceeding without it", zap.Error(err))
		} else if !ok {
			return nil, pair.ErrComponentUnavailable
		} else {
			defer func() {
				if err := uc.locker.ReleaseLock(context.WithoutCancel(ctx), lockKey, lockVal); err != nil {
					uc.logger.Warn("failed to release pair creation lock", zap.Error(err))
				}
			}()
		}
	}

	exists, err := uc.pairs.CombinedCodeExists(ctx, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, pair.ErrDuplicateCombinedCode
	}

	components, err := uc.units.ListByIDs(ctx, []string{input.PrimaryUnitID, input.SecondaryUnitID})
	if err != nil {
		return nil, err
	}
	if len(components) != 2 {
		return nil, pair.ErrComponentUnavailable
	}
	for _, unit := range components {
		if unit.Status != model.UnitAvailable || unit.ReservationKey != nil {
			return nil, pair.ErrComponentUnavailable
		}
		existing, err := uc.pairs.FindByComponent(ctx, unit.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, pair.ErrAlreadyPaired
		}
	}

	ts := uc.now()
	p := &model.StockUnitPair{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: ts,
			UpdatedAt: ts,
		},
		PrimaryUnitID:   input.PrimaryUnitID,
		SecondaryUnitID: input.SecondaryUnitID,
		CombinedCode:    code,
		Status:          model.PairAvailable,
	}
	if input.Notes != "" {
		notes := input.Notes
		p.Notes = &notes
	}

	if err := uc.pairs.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *pairUseCase) ResolveByCombinedCode(ctx context.Context, code string) (*model.StockUnitPair, error) {
	normalized := stockunit.NormalizeCode(code)
	if normalized == "" {
		return nil, nil
	}
	return uc.pairs.GetByCombinedCode(ctx, normalized)
}

func (uc *pairUseCase) ReservePair(ctx context.Context, input *dto.ReservePairInput) (*model.StockUnitPair, error) {
	if input.ReservationKey == "" {
		return nil, fmt.Errorf("reservation key is required")
	}
	p, err := uc.pairs.GetByID(ctx, input.PairID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, pair.ErrPairNotFound
	}

	expiresAt := uc.expiry(ctx, input.TTLSeconds)
	ok, err := uc.pairs.Reserve(ctx, p.ID, input.ReservationKey, expiresAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pair.ErrPairNotAvailable
	}

	reserved, err := uc.units.ReserveUnits(ctx, []string{p.PrimaryUnitID, p.SecondaryUnitID}, input.ReservationKey, expiresAt)
	if err != nil {
		return nil, err
	}
	if len(reserved) != 2 {
		uc.logger.Warn("pair reserved with components out of sync",
			zap.String("pair_id", p.ID),
			zap.Int("components_reserved", len(reserved)),
		)
	}
	return uc.pairs.GetByID(ctx, p.ID)
}

func (uc *pairUseCase) expiry(ctx context.Context, ttlSeconds int) *time.Time {
	if !uc.prober.SupportsReservationExpiry(ctx) {
		return nil
	}
	if ttlSeconds <= 0 {
		ttlSeconds = uc.cfg.DefaultTTLSeconds
	}
	t := uc.now().Add(time.Duration(ttlSeconds) * time.Second)
	return &t
}

func (uc *pairUseCase) ReleasePair(ctx context.Context, pairID string) error {
	p, err := uc.pairs.GetByID(ctx, pairID)
	if err != nil {
		return err
	}
	if p == nil {
		return pair.ErrPairNotFound
	}

	released, err := uc.pairs.Release(ctx, p.ID)
	if err != nil {
		return err
	}
	if !released {
		// not reserved; release is idempotent
		return nil
	}
	_, err = uc.units.ReleaseUnits(ctx, []string{p.PrimaryUnitID, p.SecondaryUnitID})
	return err
}

func (uc *pairUseCase) ReleasePairByReservationKey(ctx context.Context, key string) (int64, error) {
	if key == "" {
		return 0, nil
	}
	released, err := uc.pairs.ReleaseByKey(ctx, key)
	if err != nil {
		return 0, err
	}
	for _, p := range released {
		if _, err := uc.units.ReleaseUnits(ctx, []string{p.PrimaryUnitID, p.SecondaryUnitID}); err != nil {
			return int64(len(released)), err
		}
	}
	return int64(len(released)), nil
}

func (uc *pairUseCase) SellPair(ctx context.Context, input *dto.SellPairInput) (*model.StockUnitPair, error) {
	if input.OrderID == "" {
		return nil, fmt.Errorf("order id is required")
	}
	p, err := uc.pairs.GetByID(ctx, input.PairID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, pair.ErrPairNotFound
	}

	pairSale := dto.PairSaleFields{OrderID: input.OrderID}
	if input.BillID != "" {
		pairSale.BillID = &input.BillID
	}
	ok, err := uc.pairs.Sell(ctx, p.ID, pairSale)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pair.ErrPairNotAvailable
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

	sold, err := uc.units.MarkSold(ctx, []string{p.PrimaryUnitID, p.SecondaryUnitID}, sale)
	if err != nil {
		return nil, err
	}
	if len(sold) != 2 {
		uc.logger.Warn("pair sold with components out of sync",
			zap.String("pair_id", p.ID),
			zap.Int("components_sold", len(sold)),
		)
	}

	// one movement per component unit, so per-pool accounting stays exact
	for _, u := range sold {
		uc.movements.LogMovement(ctx, movement.Entry{
			VariantID:     u.VariantID,
			LocationID:    u.LocationID,
			Direction:     model.MovementOut,
			Quantity:      1,
			UnitCodes:     []string{u.UnitCode},
			ReferenceType: "pair_sale",
			ReferenceID:   input.OrderID,
			Notes:         input.Notes,
			ActorID:       input.ActorID,
		})
	}

	return uc.pairs.GetByID(ctx, p.ID)
}

func (uc *pairUseCase) DismantlePair(ctx context.Context, pairID, actorID string) error {
	p, err := uc.pairs.GetByID(ctx, pairID)
	if err != nil {
		return err
	}
	if p == nil {
		return pair.ErrPairNotFound
	}
	if p.Status == model.PairSold {
		return pair.ErrCannotDismantleSold
	}

	deleted, err := uc.pairs.Delete(ctx, p.ID)
	if err != nil {
		return err
	}
	if !deleted {
		// a concurrent sale landed between the status check and the delete
		return pair.ErrCannotDismantleSold
	}
	// a reserved pair leaves reserved components behind; free them
	if _, err := uc.units.ReleaseUnits(ctx, []string{p.PrimaryUnitID, p.SecondaryUnitID}); err != nil {
		return err
	}

	uc.logger.Info("pair dismantled",
		zap.String("pair_id", p.ID),
		zap.String("combined_code", p.CombinedCode),
		zap.String("actor_id", actorID),
	)
	return nil
}
