package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/greyfinance/ledger-engine/internal/domain"
	"github.com/greyfinance/ledger-engine/internal/observability"
	"github.com/greyfinance/ledger-engine/internal/storage"
)

const (
	// A trade shows zero profit for its first 10 seconds, ramps toward its
	// per-trade target over 30, and completes at 35.
	tradeWarmup   = 10 * time.Second
	tradeRampUp   = 30 * time.Second
	tradeDuration = 35 * time.Second

	tradeQuotaWindow = 24 * time.Hour
)

// TradeService runs the simulated copy-trading feature. Profit accrues toward
// a rank-derived daily target with bounded randomized variance; it may
// fluctuate tick to tick but never goes negative, and the final amount is
// credited to the withdrawable bucket exactly once on completion.
type TradeService struct {
	store    storage.Store
	notifier Notifier
	now      func() time.Time
}

func NewTradeService(store storage.Store, notifier Notifier) *TradeService {
	return &TradeService{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// Open starts a new pending trade for the account. The account must carry a
// rank, hold positive principal, and be under its rank's quota for the
// trailing 24 hours.
func (s *TradeService) Open(ctx context.Context, accountID uuid.UUID) (*domain.CopyTrade, error) {
	var trade *domain.CopyTrade
	err := s.store.RunInTx(ctx, func(q storage.Querier) error {
		account, err := q.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if account.Banned {
			return domain.ErrAccountBanned
		}
		if account.RankID == nil || !account.PrincipalBalance().IsPositive() {
			return domain.ErrNoRank
		}

		bands, err := q.ListRankBands(ctx)
		if err != nil {
			return fmt.Errorf("failed to load rank bands: %w", err)
		}
		table, err := domain.NewRankTable(bands)
		if err != nil {
			return fmt.Errorf("invalid rank table: %w", err)
		}
		band := table.ByID(*account.RankID)
		if band == nil {
			return domain.ErrNoRank
		}

		now := s.now()
		count, err := q.CountTradesSince(ctx, accountID, now.Add(-tradeQuotaWindow))
		if err != nil {
			return fmt.Errorf("failed to count trades: %w", err)
		}
		if count >= band.TradeQuota {
			return domain.ErrTradeLimitReached
		}

		trade = &domain.CopyTrade{
			ID:        uuid.New(),
			AccountID: accountID,
			Pair:      domain.Pairs[rand.Intn(len(domain.Pairs))],
			Direction: randDirection(),
			Amount:    randLot(),
			Profit:    decimal.Zero,
			Status:    domain.TradePending,
			CreatedAt: now,
		}
		return q.CreateTrade(ctx, trade)
	})
	if err != nil {
		return nil, err
	}
	return trade, nil
}

// Tick advances every pending trade: refreshes the displayed profit of young
// trades and completes those past the trade duration. Safe to invoke
// repeatedly; completion is claimed under the trade row lock so the final
// credit lands exactly once.
func (s *TradeService) Tick(ctx context.Context) error {
	pending, err := s.store.ListPendingTrades(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending trades: %w", err)
	}
	for i := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.tickOne(ctx, pending[i].ID); err != nil {
			zap.L().Error("trade tick failed",
				zap.Error(err),
				zap.String("trade_id", pending[i].ID.String()),
			)
		}
	}
	return nil
}

func (s *TradeService) tickOne(ctx context.Context, tradeID uuid.UUID) error {
	var events []event
	err := s.store.RunInTx(ctx, func(q storage.Querier) error {
		trade, err := q.GetTradeForUpdate(ctx, tradeID)
		if err != nil {
			return err
		}
		if trade.Status != domain.TradePending {
			return nil
		}

		now := s.now()
		age := now.Sub(trade.CreatedAt)

		account, err := q.GetAccountForUpdate(ctx, trade.AccountID)
		if err != nil {
			return err
		}
		band, err := rankBandOf(ctx, q, account)
		if err != nil {
			return err
		}

		trade.Profit = simulateProfit(account.LockedBalance, band, age)
		if age < tradeDuration {
			return q.UpdateTrade(ctx, trade)
		}

		trade.Status = domain.TradeCompleted
		trade.CompletedAt = &now
		if err := q.UpdateTrade(ctx, trade); err != nil {
			return err
		}
		observability.IncrementTradesCompleted()
		if trade.Profit.IsPositive() {
			if err := creditTx(ctx, q, account, domain.BucketWithdrawable, trade.Profit); err != nil {
				return err
			}
			change, err := recomputeRankTx(ctx, q, account)
			if err != nil {
				return err
			}
			if change != nil {
				if err := recordEvent(ctx, q, &events, account.ID, now, change.message()); err != nil {
					return err
				}
			}
		}
		return recordEvent(ctx, q, &events, account.ID, now,
			fmt.Sprintf("Your %s trade closed with a profit of %s.", trade.Pair, trade.Profit))
	})
	if err != nil {
		return err
	}
	publish(ctx, s.notifier, events)
	return nil
}

// Cancel terminates a pending trade without crediting anything. Reserved for
// administrative action; a no-op on completed or cancelled trades.
func (s *TradeService) Cancel(ctx context.Context, tradeID uuid.UUID) (*domain.CopyTrade, error) {
	var trade *domain.CopyTrade
	err := s.store.RunInTx(ctx, func(q storage.Querier) error {
		var err error
		trade, err = q.GetTradeForUpdate(ctx, tradeID)
		if err != nil {
			return err
		}
		if trade.Status != domain.TradePending {
			return nil
		}
		trade.Status = domain.TradeCancelled
		trade.Profit = decimal.Zero
		return q.UpdateTrade(ctx, trade)
	})
	if err != nil {
		return nil, err
	}
	return trade, nil
}

func (s *TradeService) Get(ctx context.Context, id uuid.UUID) (*domain.CopyTrade, error) {
	return s.store.GetTrade(ctx, id)
}

func (s *TradeService) ListByAccount(ctx context.Context, accountID uuid.UUID, page, pageSize int) ([]domain.CopyTrade, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.store.ListTradesByAccount(ctx, accountID, pageSize, (page-1)*pageSize)
}

func rankBandOf(ctx context.Context, q storage.Querier, a *domain.Account) (*domain.RankBand, error) {
	if a.RankID == nil {
		return nil, nil
	}
	bands, err := q.ListRankBands(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rank bands: %w", err)
	}
	table, err := domain.NewRankTable(bands)
	if err != nil {
		return nil, fmt.Errorf("invalid rank table: %w", err)
	}
	return table.ByID(*a.RankID), nil
}

// simulateProfit evaluates the profit curve for a pending trade of the given
// age. The per-trade target is the rank's daily target (locked balance times
// the band's daily percentage) split across its quota; the 0.50 default
// applies only when the account holds no rank or the band carries no quota.
// The displayed value scales with age and carries a small randomized
// variance, floored at a minimum positive amount once past the warmup.
func simulateProfit(locked decimal.Decimal, band *domain.RankBand, age time.Duration) decimal.Decimal {
	if age < tradeWarmup {
		return decimal.Zero
	}

	perTrade := domain.DefaultDailyTarget
	if band != nil && locked.IsPositive() && band.TradeQuota > 0 {
		dailyTarget := locked.Mul(band.DailyProfitPct).Div(decimal.NewFromInt(100))
		perTrade = dailyTarget.Div(decimal.NewFromInt(int64(band.TradeQuota)))
	}

	// Variance of up to 5% of the target, 60% of the time on the upside.
	variance := perTrade.Mul(decimal.NewFromFloat(0.05 * (0.5 + rand.Float64())))
	if rand.Float64() >= 0.6 {
		variance = variance.Neg()
	}

	progress := age.Seconds() / tradeRampUp.Seconds()
	if progress > 1 {
		progress = 1
	}
	jitter := 0.95 + rand.Float64()*0.15

	profit := perTrade.Add(variance).
		Mul(decimal.NewFromFloat(progress)).
		Mul(decimal.NewFromFloat(jitter)).
		Round(2)
	if profit.LessThan(domain.MinTradeProfit) {
		return domain.MinTradeProfit
	}
	return profit
}

func randDirection() domain.TradeDirection {
	if rand.Intn(2) == 0 {
		return domain.TradeBuy
	}
	return domain.TradeSell
}

// randLot draws a lot size uniformly from [MinTradeLot, MaxTradeLot].
func randLot() decimal.Decimal {
	span := domain.MaxTradeLot.Sub(domain.MinTradeLot)
	return domain.MinTradeLot.Add(span.Mul(decimal.NewFromFloat(rand.Float64()))).Round(2)
}
