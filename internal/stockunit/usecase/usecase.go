package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arkapos/stockunit-service/internal/model"
	"github.com/arkapos/stockunit-service/internal/movement"
	"github.com/arkapos/stockunit-service/internal/stockunit"
	"github.com/arkapos/stockunit-service/internal/stockunit/dto"
	pkglogger "github.com/arkapos/stockunit-service/pkg/logger"
)

type stockUnitUseCase struct {
	repo      stockunit.Repository
	movements movement.Logger
	logger    pkglogger.ZapLogger
	now       func() time.Time
}

func NewStockUnitUseCase(repo stockunit.Repository, movements movement.Logger, log pkglogger.ZapLogger) stockunit.UseCase {
	return &stockUnitUseCase{
		repo:      repo,
		movements: movements,
		logger:    log,
		now:       time.Now,
	}
}

func (uc *stockUnitUseCase) CreateUnit(ctx context.Context, input *dto.CreateUnitInput) (*model.StockUnit, error) {
	code := stockunit.NormalizeCode(input.UnitCode)
	if code == "" {
		return nil, fmt.Errorf("unit code is required")
	}

	exists, err := uc.repo.CodeExists(ctx, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, stockunit.ErrDuplicateCode
	}

	status := model.UnitAvailable
	if input.Status == string(model.UnitDamaged) {
		status = model.UnitDamaged
	}

	ts := uc.now()
	unit := &model.StockUnit{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: ts,
			UpdatedAt: ts,
		},
		VariantID:  input.VariantID,
		LocationID: input.LocationID,
		UnitCode:   code,
		Status:     status,
	}
	if input.Notes != "" {
		notes := input.Notes
		unit.Notes = &notes
	}

	if err := uc.repo.Create(ctx, unit); err != nil {
		return nil, err
	}

	uc.movements.LogMovement(ctx, movement.Entry{
		VariantID:     unit.VariantID,
		LocationID:    unit.LocationID,
		Direction:     model.MovementIn,
		Quantity:      1,
		UnitCodes:     []string{unit.UnitCode},
		ReferenceType: "intake",
		Notes:         input.Notes,
		ActorID:       input.ActorID,
	})

	return unit, nil
}

func (uc *stockUnitUseCase) CountUnits(ctx context.Context, variantID, locationID string, status *model.UnitStatus) (int, error) {
	return uc.repo.Count(ctx, variantID, locationID, status)
}

func (uc *stockUnitUseCase) UpdateUnit(ctx context.Context, id string, input *dto.UpdateUnitInput) (*model.StockUnit, error) {
	unit, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, stockunit.ErrUnitNotFound
	}

	fields := map[string]interface{}{}
	if input.VariantID != nil {
		fields["variant_id"] = *input.VariantID
	}
	if input.LocationID != nil {
		fields["location_id"] = *input.LocationID
	}
	if input.Notes != nil {
		fields["notes"] = *input.Notes
	}
	if input.UnitCode != nil {
		code := stockunit.NormalizeCode(*input.UnitCode)
		if code == "" {
			return nil, fmt.Errorf("unit code is required")
		}
		if code != unit.UnitCode {
			other, err := uc.repo.GetByCode(ctx, code)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != unit.ID {
				return nil, stockunit.ErrDuplicateCode
			}
			fields["unit_code"] = code
		}
	}

	if len(fields) == 0 {
		return unit, nil
	}
	fields["updated_at"] = uc.now()

	if err := uc.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return uc.repo.GetByID(ctx, id)
}

func (uc *stockUnitUseCase) RemoveUnits(ctx context.Context, input *dto.RemoveUnitsInput) (int64, error) {
	if len(input.UnitIDs) == 0 {
		return 0, nil
	}

	var removed []model.StockUnit
	var err error
	refType := "manual_removal"
	switch input.Mode {
	case dto.RemoveModeDamage:
		removed, err = uc.repo.DamageAvailable(ctx, input.UnitIDs, input.Reason)
		refType = "damage"
	default:
		removed, err = uc.repo.DeleteAvailable(ctx, input.UnitIDs)
	}
	if err != nil {
		return 0, err
	}

	if skipped := len(input.UnitIDs) - len(removed); skipped > 0 {
		uc.logger.Info("skipped units not in available state during removal",
			zap.Int("requested", len(input.UnitIDs)),
			zap.Int("skipped", skipped),
		)
	}

	for _, e := range movement.EntriesFromUnits(removed, model.MovementOut, refType, "", input.Reason, input.ActorID) {
		uc.movements.LogMovement(ctx, e)
	}
	return int64(len(removed)), nil
}

func (uc *stockUnitUseCase) ResolveByCode(ctx context.Context, code string) (*model.StockUnit, error) {
	normalized := stockunit.NormalizeCode(code)
	if normalized == "" {
		return nil, nil
	}
	return uc.repo.GetByCode(ctx, normalized)
}
