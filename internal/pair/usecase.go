package pair

import (
	"context"

	"github.com/arkapos/stockunit-service/internal/model"
	"github.com/arkapos/stockunit-service/internal/pair/dto"
)

type UseCase interface {
	CreatePair(ctx context.Context, input *dto.CreatePairInput) (*model.StockUnitPair, error)
	// ResolveByCombinedCode normalizes the code and returns (nil, nil)
	// when no pair matches.
	ResolveByCombinedCode(ctx context.Context, code string) (*model.StockUnitPair, error)
	ReservePair(ctx context.Context, input *dto.ReservePairInput) (*model.StockUnitPair, error)
	ReleasePair(ctx context.Context, pairID string) error
	ReleasePairByReservationKey(ctx context.Context, key string) (int64, error)
	SellPair(ctx context.Context, input *dto.SellPairInput) (*model.StockUnitPair, error)
	DismantlePair(ctx context.Context, pairID, actorID string) error
}
