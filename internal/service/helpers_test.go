package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/greyfinance/ledger-engine/internal/domain"
	"github.com/greyfinance/ledger-engine/internal/storage"
	"github.com/greyfinance/ledger-engine/internal/storage/memory"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// setupTestStore returns a fresh in-memory store seeded with the default rank
// table.
func setupTestStore(t *testing.T) storage.Store {
	t.Helper()

	st := memory.NewStore()
	bands := []domain.RankBand{
		{ID: uuid.New(), Name: "Bronze", MinBalance: dec("7.5"), MaxBalance: decPtr("500"), DailyProfitPct: dec("1.00"), TradeQuota: 5, Color: "#cd7f32"},
		{ID: uuid.New(), Name: "Silver", MinBalance: dec("500"), MaxBalance: decPtr("2000"), DailyProfitPct: dec("1.33"), TradeQuota: 10, Color: "#c0c0c0"},
		{ID: uuid.New(), Name: "Gold", MinBalance: dec("2000"), MaxBalance: decPtr("10000"), DailyProfitPct: dec("1.67"), TradeQuota: 15, Color: "#ffd700"},
		{ID: uuid.New(), Name: "Platinum", MinBalance: dec("10000"), DailyProfitPct: dec("2.00"), TradeQuota: 20, Color: "#e5e4e2"},
	}
	for i := range bands {
		require.NoError(t, st.UpsertRankBand(context.Background(), &bands[i]))
	}
	return st
}

func createTestAccount(t *testing.T, st storage.Store, code string) *domain.Account {
	t.Helper()

	account := &domain.Account{
		ID:                  uuid.New(),
		Email:               code + "@example.com",
		ReferralCode:        code,
		LockedBalance:       decimal.Zero,
		WithdrawableBalance: decimal.Zero,
		ReferralEarnings:    decimal.Zero,
		CreatedAt:           testTime,
	}
	require.NoError(t, st.CreateAccount(context.Background(), account))
	return account
}

func rankName(t *testing.T, st storage.Store, accountID uuid.UUID) string {
	t.Helper()

	account, err := st.GetAccount(context.Background(), accountID)
	require.NoError(t, err)
	if account.RankID == nil {
		return ""
	}
	bands, err := st.ListRankBands(context.Background())
	require.NoError(t, err)
	for _, b := range bands {
		if b.ID == *account.RankID {
			return b.Name
		}
	}
	return ""
}

func requireBalances(t *testing.T, st storage.Store, accountID uuid.UUID, locked, withdrawable string) {
	t.Helper()

	account, err := st.GetAccount(context.Background(), accountID)
	require.NoError(t, err)
	require.True(t, account.LockedBalance.Equal(dec(locked)),
		"locked balance: want %s, got %s", locked, account.LockedBalance)
	require.True(t, account.WithdrawableBalance.Equal(dec(withdrawable)),
		"withdrawable balance: want %s, got %s", withdrawable, account.WithdrawableBalance)
}

// captureNotifier records pushed messages for assertions.
type captureNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *captureNotifier) Notify(_ context.Context, _ uuid.UUID, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *captureNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	copy(out, n.messages)
	return out
}
