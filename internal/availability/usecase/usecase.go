package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arkapos/stockunit-service/internal/availability"
	"github.com/arkapos/stockunit-service/internal/capability"
	"github.com/arkapos/stockunit-service/internal/stockunit"
	sudto "github.com/arkapos/stockunit-service/internal/stockunit/dto"
	pkglogger "github.com/arkapos/stockunit-service/pkg/logger"
)

type availabilityUseCase struct {
	units  stockunit.Repository
	prober capability.Prober
	logger pkglogger.ZapLogger
	now    func() time.Time
}

func NewAvailabilityUseCase(units stockunit.Repository, prober capability.Prober, log pkglogger.ZapLogger) availability.UseCase {
	return &availabilityUseCase{
		units:  units,
		prober: prober,
		logger: log,
		now:    time.Now,
	}
}

func (uc *availabilityUseCase) GetMetrics(ctx context.Context, pools []sudto.VariantLocation) ([]availability.Metric, error) {
	if len(pools) == 0 {
		return []availability.Metric{}, nil
	}

	// Opportunistic cleanup so reads reflect reality even when no sweeper
	// job is running. Failure here must not fail the read.
	if uc.prober.SupportsReservationExpiry(ctx) {
		if _, err := uc.units.SweepExpired(ctx, uc.now()); err != nil {
			uc.logger.Warn("opportunistic expiry sweep failed", zap.Error(err))
		}
	}

	rows, err := uc.units.AvailabilityCounts(ctx, pools, uc.now())
	if err != nil {
		return nil, err
	}

	byPool := make(map[sudto.VariantLocation]sudto.AvailabilityRow, len(rows))
	for _, r := range rows {
		byPool[sudto.VariantLocation{VariantID: r.VariantID, LocationID: r.LocationID}] = r
	}

	metrics := make([]availability.Metric, 0, len(pools))
	for _, p := range pools {
		m := availability.Metric{VariantID: p.VariantID, LocationID: p.LocationID}
		if r, ok := byPool[p]; ok {
			m.OnHand = r.OnHand
			m.Held = r.Held
			m.Available = r.Available
		}
		metrics = append(metrics, m)
	}
	return metrics, nil
}

func (uc *availabilityUseCase) ListLowStock(ctx context.Context, pools []sudto.VariantLocation, threshold int) ([]availability.Metric, error) {
	metrics, err := uc.GetMetrics(ctx, pools)
	if err != nil {
		return nil, err
	}
	low := make([]availability.Metric, 0)
	for _, m := range metrics {
		if m.Available <= threshold {
			low = append(low, m)
		}
	}
	return low, nil
}
