package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/greyfinance/ledger-engine/internal/domain"
	"github.com/greyfinance/ledger-engine/internal/storage"
)

// PromoService redeems promotional codes. A redeemed bonus enters the ledger
// as an approved deposit with the standard lock window, so the expiry reaper
// later releases it like any other deposit.
type PromoService struct {
	store    storage.Store
	notifier Notifier
	now      func() time.Time
}

func NewPromoService(store storage.Store, notifier Notifier) *PromoService {
	return &PromoService{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// Redeem grants the account a bonus drawn uniformly from the code's range.
func (s *PromoService) Redeem(ctx context.Context, accountID uuid.UUID, code string) (*domain.Deposit, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.ErrInvalidCode
	}

	var (
		deposit *domain.Deposit
		events  []event
	)
	err := s.store.RunInTx(ctx, func(q storage.Querier) error {
		account, err := requireActive(ctx, q, accountID)
		if err != nil {
			return err
		}

		promo, err := q.GetPromoByCode(ctx, code)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrInvalidCode
			}
			return err
		}
		promo, err = q.GetPromoForUpdate(ctx, promo.ID)
		if err != nil {
			return err
		}

		now := s.now()
		if promo.Status != domain.PromoActive {
			return domain.ErrInvalidCode
		}
		if promo.Expiration != nil && !promo.Expiration.After(now) {
			return domain.ErrPromoExpired
		}
		if promo.UsageLimit != nil && promo.UsageCount >= *promo.UsageLimit {
			return domain.ErrUsageLimitReached
		}
		redeemed, err := q.PromoRedemptionExists(ctx, accountID, promo.ID)
		if err != nil {
			return err
		}
		if redeemed {
			return domain.ErrAlreadyRedeemed
		}

		bonus := drawBonus(promo.BonusMin, promo.BonusMax)
		expires := now.AddDate(0, 0, domain.PromoLockDays)
		deposit = &domain.Deposit{
			ID:         uuid.New(),
			AccountID:  accountID,
			Kind:       domain.DepositKindPromo,
			Amount:     bonus,
			Status:     domain.DepositApproved,
			ApprovedAt: &now,
			ExpiresAt:  &expires,
			CreatedAt:  now,
		}
		if err := q.CreateDeposit(ctx, deposit); err != nil {
			return err
		}

		account, err = q.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if err := creditTx(ctx, q, account, domain.BucketLocked, bonus); err != nil {
			return err
		}
		change, err := recomputeRankTx(ctx, q, account)
		if err != nil {
			return err
		}
		if change != nil {
			if err := recordEvent(ctx, q, &events, accountID, now, change.message()); err != nil {
				return err
			}
		}

		if err := q.CreatePromoRedemption(ctx, &domain.PromoRedemption{
			ID:        uuid.New(),
			AccountID: accountID,
			PromoID:   promo.ID,
			Bonus:     bonus,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		promo.UsageCount++
		if err := q.UpdatePromoCode(ctx, promo); err != nil {
			return err
		}

		return recordEvent(ctx, q, &events, accountID, now,
			fmt.Sprintf("Promo code %s redeemed for a %s bonus.", promo.Code, bonus))
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.notifier, events)
	zap.L().Info("promo redeemed",
		zap.String("account_id", accountID.String()),
		zap.String("code", code),
		zap.String("bonus", deposit.Amount.String()),
	)
	return deposit, nil
}

// CreatePromoRequest describes a new promotional code.
type CreatePromoRequest struct {
	Code       string
	BonusMin   decimal.Decimal
	BonusMax   decimal.Decimal
	Expiration *time.Time
	UsageLimit *int
}

// Create registers a new active promo code.
func (s *PromoService) Create(ctx context.Context, req CreatePromoRequest) (*domain.PromoCode, error) {
	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		return nil, errors.New("code is required")
	}
	if !req.BonusMin.IsPositive() || req.BonusMax.LessThan(req.BonusMin) {
		return nil, fmt.Errorf("invalid bonus range [%s, %s]", req.BonusMin, req.BonusMax)
	}

	promo := &domain.PromoCode{
		ID:         uuid.New(),
		Code:       req.Code,
		BonusMin:   req.BonusMin.Round(2),
		BonusMax:   req.BonusMax.Round(2),
		Expiration: req.Expiration,
		UsageLimit: req.UsageLimit,
		Status:     domain.PromoActive,
		CreatedAt:  s.now(),
	}
	if err := s.store.CreatePromoCode(ctx, promo); err != nil {
		return nil, err
	}
	return promo, nil
}

// Disable deactivates a promo code. Existing redemptions are unaffected.
func (s *PromoService) Disable(ctx context.Context, code string) error {
	return s.store.RunInTx(ctx, func(q storage.Querier) error {
		promo, err := q.GetPromoByCode(ctx, code)
		if err != nil {
			return err
		}
		promo, err = q.GetPromoForUpdate(ctx, promo.ID)
		if err != nil {
			return err
		}
		promo.Status = domain.PromoDisabled
		return q.UpdatePromoCode(ctx, promo)
	})
}

// drawBonus picks a value uniformly from [min, max], rounded to cents.
func drawBonus(min, max decimal.Decimal) decimal.Decimal {
	span := max.Sub(min)
	if !span.IsPositive() {
		return min
	}
	return min.Add(span.Mul(decimal.NewFromFloat(rand.Float64()))).Round(2)
}
