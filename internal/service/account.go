package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
	"github.com/shopspring/decimal"

	"github.com/greyfinance/ledger-engine/internal/domain"
	"github.com/greyfinance/ledger-engine/internal/storage"
)

const referralCodeAttempts = 5

// AccountService creates accounts and serves account-scoped reads.
type AccountService struct {
	store   storage.Store
	now     func() time.Time
	newCode func() string
}

func NewAccountService(store storage.Store) (*AccountService, error) {
	gen, err := nanoid.CustomASCII(domain.ReferralCodeAlphabet, domain.ReferralCodeLen)
	if err != nil {
		return nil, fmt.Errorf("failed to build referral code generator: %w", err)
	}
	return &AccountService{
		store:   store,
		now:     time.Now,
		newCode: gen,
	}, nil
}

// Create registers a new account with a fresh referral code.
func (s *AccountService) Create(ctx context.Context, email string) (*domain.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("email is required")
	}

	account := &domain.Account{
		ID:                  uuid.New(),
		Email:               email,
		LockedBalance:       decimal.Zero,
		WithdrawableBalance: decimal.Zero,
		ReferralEarnings:    decimal.Zero,
		CreatedAt:           s.now(),
	}

	// Codes come from a 32-character alphabet, so collisions are rare but the
	// unique index makes them fatal. Retry with a fresh code.
	var lastErr error
	for i := 0; i < referralCodeAttempts; i++ {
		account.ReferralCode = s.newCode()
		if lastErr = s.store.CreateAccount(ctx, account); lastErr == nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("failed to create account: %w", lastErr)
}

func (s *AccountService) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.store.GetAccount(ctx, id)
}

// SetBanned toggles the banned flag. Banned accounts cannot submit deposits,
// withdrawals, or open trades.
func (s *AccountService) SetBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	return s.store.SetAccountBanned(ctx, id, banned)
}

// IsBanned reports whether the account is currently banned.
func (s *AccountService) IsBanned(ctx context.Context, id uuid.UUID) (bool, error) {
	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return false, err
	}
	return account.Banned, nil
}

func (s *AccountService) Notifications(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.ListNotificationsByAccount(ctx, accountID, limit)
}

// requireActive loads the account and rejects banned ones. Shared by the
// services that gate user-initiated mutations.
func requireActive(ctx context.Context, q storage.Querier, id uuid.UUID) (*domain.Account, error) {
	account, err := q.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.Banned {
		return nil, domain.ErrAccountBanned
	}
	return account, nil
}
