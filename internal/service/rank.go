package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greyfinance/ledger-engine/internal/domain"
	"github.com/greyfinance/ledger-engine/internal/storage"
)

// RankService exposes the admin-curated rank table.
type RankService struct {
	store storage.Store
	now   func() time.Time
}

func NewRankService(store storage.Store) *RankService {
	return &RankService{store: store, now: time.Now}
}

// Table returns the validated rank table.
func (s *RankService) Table(ctx context.Context) (*domain.RankTable, error) {
	bands, err := s.store.ListRankBands(ctx)
	if err != nil {
		return nil, err
	}
	return domain.NewRankTable(bands)
}

// UpsertBandRequest creates or replaces one band of the rank table.
type UpsertBandRequest struct {
	ID             uuid.UUID
	Name           string
	MinBalance     decimal.Decimal
	MaxBalance     *decimal.Decimal
	DailyProfitPct decimal.Decimal
	TradeQuota     int
	Color          string
}

// UpsertBand validates the band against the rest of the table before
// persisting, so the stored table is always contiguous and non-overlapping.
func (s *RankService) UpsertBand(ctx context.Context, req UpsertBandRequest) (*domain.RankBand, error) {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	band := domain.RankBand{
		ID:             req.ID,
		Name:           req.Name,
		MinBalance:     req.MinBalance,
		MaxBalance:     req.MaxBalance,
		DailyProfitPct: req.DailyProfitPct,
		TradeQuota:     req.TradeQuota,
		Color:          req.Color,
		CreatedAt:      s.now(),
	}

	err := s.store.RunInTx(ctx, func(q storage.Querier) error {
		bands, err := q.ListRankBands(ctx)
		if err != nil {
			return err
		}
		next := make([]domain.RankBand, 0, len(bands)+1)
		for _, b := range bands {
			if b.ID != band.ID {
				next = append(next, b)
			}
		}
		next = append(next, band)
		if _, err := domain.NewRankTable(next); err != nil {
			return err
		}
		return q.UpsertRankBand(ctx, &band)
	})
	if err != nil {
		return nil, err
	}
	return &band, nil
}
