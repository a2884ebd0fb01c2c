package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/greyfinance/ledger-engine/internal/domain"
)

func TestDepositSubmitBelowMinimum(t *testing.T) {
	st := setupTestStore(t)
	svc := NewDepositService(st, NopNotifier{})
	account := createTestAccount(t, st, "DEPOSIT1")

	_, err := svc.Submit(context.Background(), SubmitDepositRequest{
		AccountID: account.ID,
		Amount:    dec("7.49"),
		Network:   "USDT BEP20",
	})
	require.ErrorIs(t, err, ErrDepositBelowMinimum)
}

func TestDepositSubmitBannedAccount(t *testing.T) {
	st := setupTestStore(t)
	svc := NewDepositService(st, NopNotifier{})
	account := createTestAccount(t, st, "DEPOSIT2")
	require.NoError(t, st.SetAccountBanned(context.Background(), account.ID, true))

	_, err := svc.Submit(context.Background(), SubmitDepositRequest{
		AccountID: account.ID,
		Amount:    dec("100"),
		Network:   "USDT BEP20",
	})
	require.ErrorIs(t, err, domain.ErrAccountBanned)
}

func TestDepositApproveCreditsLockedAndRanks(t *testing.T) {
	st := setupTestStore(t)
	svc := NewDepositService(st, NopNotifier{})
	svc.now = func() time.Time { return testTime }
	account := createTestAccount(t, st, "DEPOSIT3")
	ctx := context.Background()

	deposit, err := svc.Submit(ctx, SubmitDepositRequest{
		AccountID: account.ID,
		Amount:    dec("100"),
		Network:   "USDT BEP20",
	})
	require.NoError(t, err)
	require.Equal(t, domain.DepositPending, deposit.Status)
	requireBalances(t, st, account.ID, "0", "0")

	approved, err := svc.Approve(ctx, deposit.ID)
	require.NoError(t, err)
	require.Equal(t, domain.DepositApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	require.NotNil(t, approved.ExpiresAt)
	require.Equal(t, testTime.AddDate(0, 0, domain.LockDays), *approved.ExpiresAt)

	requireBalances(t, st, account.ID, "100", "0")
	require.Equal(t, "Bronze", rankName(t, st, account.ID))

	// Duplicate admin action is a no-op.
	again, err := svc.Approve(ctx, deposit.ID)
	require.NoError(t, err)
	require.Equal(t, domain.DepositApproved, again.Status)
	requireBalances(t, st, account.ID, "100", "0")
}

func TestDepositApproveSettlesReferralOnce(t *testing.T) {
	st := setupTestStore(t)
	svc := NewDepositService(st, NopNotifier{})
	referrer := createTestAccount(t, st, "REFERRER")
	referee := createTestAccount(t, st, "REFEREE1")
	ctx := context.Background()

	deposit, err := svc.Submit(ctx, SubmitDepositRequest{
		AccountID:    referee.ID,
		Amount:       dec("100"),
		Network:      "USDT BEP20",
		ReferrerCode: "REFERRER",
	})
	require.NoError(t, err)
	require.NotNil(t, deposit.ReferrerID)
	require.Equal(t, referrer.ID, *deposit.ReferrerID)

	_, err = svc.Approve(ctx, deposit.ID)
	require.NoError(t, err)

	// 8% of 100, credited locked.
	requireBalances(t, st, referrer.ID, "8", "0")
	got, err := st.GetAccount(ctx, referrer.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.TotalReferrals)
	require.Equal(t, 1, got.ValidReferrals)
	require.True(t, got.ReferralEarnings.Equal(dec("8")))

	_, err = svc.Approve(ctx, deposit.ID)
	require.NoError(t, err)
	requireBalances(t, st, referrer.ID, "8", "0")
}

func TestDepositSubmitIgnoresSelfAndUnknownReferrer(t *testing.T) {
	st := setupTestStore(t)
	svc := NewDepositService(st, NopNotifier{})
	account := createTestAccount(t, st, "DEPOSIT4")
	ctx := context.Background()

	own, err := svc.Submit(ctx, SubmitDepositRequest{
		AccountID:    account.ID,
		Amount:       dec("50"),
		Network:      "Solana",
		ReferrerCode: "DEPOSIT4",
	})
	require.NoError(t, err)
	require.Nil(t, own.ReferrerID)

	unknown, err := svc.Submit(ctx, SubmitDepositRequest{
		AccountID:    account.ID,
		Amount:       dec("50"),
		Network:      "Solana",
		ReferrerCode: "NOSUCHCD",
	})
	require.NoError(t, err)
	require.Nil(t, unknown.ReferrerID)
}

func TestDepositRejectLeavesBalancesUntouched(t *testing.T) {
	st := setupTestStore(t)
	svc := NewDepositService(st, NopNotifier{})
	account := createTestAccount(t, st, "DEPOSIT5")
	ctx := context.Background()

	deposit, err := svc.Submit(ctx, SubmitDepositRequest{
		AccountID: account.ID,
		Amount:    dec("100"),
		Network:   "Ethereum",
	})
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, deposit.ID)
	require.NoError(t, err)
	require.Equal(t, domain.DepositRejected, rejected.Status)
	requireBalances(t, st, account.ID, "0", "0")

	// Rejecting again, or approving after rejection, changes nothing.
	_, err = svc.Approve(ctx, deposit.ID)
	require.NoError(t, err)
	requireBalances(t, st, account.ID, "0", "0")
}

func TestGatewayDepositConfirmFlow(t *testing.T) {
	st := setupTestStore(t)
	svc := NewDepositService(st, NopNotifier{})
	account := createTestAccount(t, st, "DEPOSIT6")
	ctx := context.Background()

	_, err := svc.SubmitGateway(ctx, account.ID, dec("200"), "")
	require.Error(t, err)

	deposit, err := svc.SubmitGateway(ctx, account.ID, dec("200"), "PSP-REF-1")
	require.NoError(t, err)
	require.Equal(t, domain.DepositKindGateway, deposit.Kind)

	_, err = svc.ConfirmGateway(ctx, "PSP-REF-1", dec("150"))
	require.Error(t, err)
	requireBalances(t, st, account.ID, "0", "0")

	confirmed, err := svc.ConfirmGateway(ctx, "PSP-REF-1", dec("200"))
	require.NoError(t, err)
	require.Equal(t, domain.DepositApproved, confirmed.Status)
	requireBalances(t, st, account.ID, "200", "0")

	_, err = svc.ConfirmGateway(ctx, "NO-SUCH-REF", dec("200"))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReapExpiredReleasesLockAndDemotes(t *testing.T) {
	st := setupTestStore(t)
	svc := NewDepositService(st, NopNotifier{})
	now := testTime
	svc.now = func() time.Time { return now }
	account := createTestAccount(t, st, "DEPOSIT7")
	ctx := context.Background()

	deposit, err := svc.Submit(ctx, SubmitDepositRequest{
		AccountID: account.ID,
		Amount:    dec("100"),
		Network:   "BNB SmartChain",
	})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, deposit.ID)
	require.NoError(t, err)
	require.Equal(t, "Bronze", rankName(t, st, account.ID))

	// Not yet due.
	reaped, err := svc.ReapExpired(ctx)
	require.NoError(t, err)
	require.Zero(t, reaped)

	now = testTime.AddDate(0, 0, domain.LockDays+1)
	reaped, err = svc.ReapExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, reaped)

	requireBalances(t, st, account.ID, "0", "0")
	require.Equal(t, "", rankName(t, st, account.ID))
	got, err := st.GetDeposit(ctx, deposit.ID)
	require.NoError(t, err)
	require.Equal(t, domain.DepositExpired, got.Status)

	// Idempotent.
	reaped, err = svc.ReapExpired(ctx)
	require.NoError(t, err)
	require.Zero(t, reaped)
}

func TestReapInconsistentLedgerLeavesDepositApproved(t *testing.T) {
	st := setupTestStore(t)
	svc := NewDepositService(st, NopNotifier{})
	now := testTime
	svc.now = func() time.Time { return now }
	account := createTestAccount(t, st, "DEPOSIT8")
	ctx := context.Background()

	deposit, err := svc.Submit(ctx, SubmitDepositRequest{
		AccountID: account.ID,
		Amount:    dec("100"),
		Network:   "USDT ERC20",
	})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, deposit.ID)
	require.NoError(t, err)

	// Force the anomaly: locked balance below the deposit amount.
	require.NoError(t, st.UpdateAccountBalances(ctx, account.ID, dec("40"), dec("0")))

	now = testTime.AddDate(0, 0, domain.LockDays+1)
	reaped, err := svc.ReapExpired(ctx)
	require.NoError(t, err)
	require.Zero(t, reaped)

	got, err := st.GetDeposit(ctx, deposit.ID)
	require.NoError(t, err)
	require.Equal(t, domain.DepositApproved, got.Status)
	requireBalances(t, st, account.ID, "40", "0")
}
