package stockunit

import (
	"context"

	"github.com/arkapos/stockunit-service/internal/model"
	"github.com/arkapos/stockunit-service/internal/stockunit/dto"
)

type UseCase interface {
	CreateUnit(ctx context.Context, input *dto.CreateUnitInput) (*model.StockUnit, error)
	CountUnits(ctx context.Context, variantID, locationID string, status *model.UnitStatus) (int, error)
	UpdateUnit(ctx context.Context, id string, input *dto.UpdateUnitInput) (*model.StockUnit, error)
	// RemoveUnits affects only units currently available and returns the
	// count actually removed; non-available targets are skipped silently.
	RemoveUnits(ctx context.Context, input *dto.RemoveUnitsInput) (int64, error)
	// ResolveByCode normalizes the code and returns (nil, nil) when no
	// unit matches.
	ResolveByCode(ctx context.Context, code string) (*model.StockUnit, error)
}

// NormalizeCode strips non-alphanumeric characters and uppercases, so the
// same physical label always resolves to the same stored code.
func NormalizeCode(code string) string {
	out := make([]rune, 0, len(code))
	for _, r := range code {
		switch {
		case r >= 'a' && r <= 'z':
			out = append(out, r-'a'+'A')
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			out = append(out, r)
		}
	}
	return string(out)
}
