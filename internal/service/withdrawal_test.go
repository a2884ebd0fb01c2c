package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/greyfinance/ledger-engine/internal/domain"
)

type stubGateway struct {
	ref string
	err error

	calls int
}

func (s *stubGateway) SendTransfer(ctx context.Context, destination string, amount decimal.Decimal) (string, error) {
	s.calls++
	return s.ref, s.err
}

func TestWithdrawalSubmitDebitsWithdrawable(t *testing.T) {
	st := setupTestStore(t)
	ledger := NewLedgerService(st, NopNotifier{})
	svc := NewWithdrawalService(st, &stubGateway{ref: "MOCK-1"}, NopNotifier{})
	account := createTestAccount(t, st, "WITHDRW1")
	ctx := context.Background()

	require.NoError(t, ledger.Credit(ctx, account.ID, domain.BucketWithdrawable, dec("50")))

	withdrawal, err := svc.Submit(ctx, SubmitWithdrawalRequest{
		AccountID:     account.ID,
		Kind:          domain.WithdrawalKindCrypto,
		Amount:        dec("20"),
		Network:       "USDT BEP20",
		WalletAddress: "0xabc",
	})
	require.NoError(t, err)
	require.Equal(t, domain.WithdrawalPending, withdrawal.Status)
	requireBalances(t, st, account.ID, "0", "30")

	got, err := st.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastWithdrawalAt)
}

func TestWithdrawalSubmitValidation(t *testing.T) {
	st := setupTestStore(t)
	svc := NewWithdrawalService(st, &stubGateway{}, NopNotifier{})
	account := createTestAccount(t, st, "WITHDRW2")
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitWithdrawalRequest{
		AccountID: account.ID, Kind: domain.WithdrawalKindCrypto, Amount: dec("2.49"), WalletAddress: "0xabc",
	})
	require.ErrorIs(t, err, ErrWithdrawalBelowMinimum)

	_, err = svc.Submit(ctx, SubmitWithdrawalRequest{
		AccountID: account.ID, Kind: domain.WithdrawalKindCrypto, Amount: dec("10"),
	})
	require.Error(t, err)

	_, err = svc.Submit(ctx, SubmitWithdrawalRequest{
		AccountID: account.ID, Kind: domain.WithdrawalKindBank, Amount: dec("10"),
	})
	require.Error(t, err)

	// Locked funds never cover a withdrawal.
	ledger := NewLedgerService(st, NopNotifier{})
	require.NoError(t, ledger.Credit(ctx, account.ID, domain.BucketLocked, dec("100")))
	_, err = svc.Submit(ctx, SubmitWithdrawalRequest{
		AccountID: account.ID, Kind: domain.WithdrawalKindCrypto, Amount: dec("10"), WalletAddress: "0xabc",
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestWithdrawalRejectRefunds(t *testing.T) {
	st := setupTestStore(t)
	ledger := NewLedgerService(st, NopNotifier{})
	svc := NewWithdrawalService(st, &stubGateway{}, NopNotifier{})
	account := createTestAccount(t, st, "WITHDRW3")
	ctx := context.Background()

	require.NoError(t, ledger.Credit(ctx, account.ID, domain.BucketWithdrawable, dec("50")))
	withdrawal, err := svc.Submit(ctx, SubmitWithdrawalRequest{
		AccountID: account.ID, Kind: domain.WithdrawalKindCrypto, Amount: dec("20"), WalletAddress: "0xabc",
	})
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, withdrawal.ID)
	require.NoError(t, err)
	require.Equal(t, domain.WithdrawalRejected, rejected.Status)
	requireBalances(t, st, account.ID, "0", "50")

	// Rejecting again must not double-refund.
	_, err = svc.Reject(ctx, withdrawal.ID)
	require.NoError(t, err)
	requireBalances(t, st, account.ID, "0", "50")
}

func TestWithdrawalApproveCrypto(t *testing.T) {
	st := setupTestStore(t)
	ledger := NewLedgerService(st, NopNotifier{})
	gw := &stubGateway{ref: "MOCK-1"}
	svc := NewWithdrawalService(st, gw, NopNotifier{})
	account := createTestAccount(t, st, "WITHDRW4")
	ctx := context.Background()

	require.NoError(t, ledger.Credit(ctx, account.ID, domain.BucketWithdrawable, dec("50")))
	withdrawal, err := svc.Submit(ctx, SubmitWithdrawalRequest{
		AccountID: account.ID, Kind: domain.WithdrawalKindCrypto, Amount: dec("20"), WalletAddress: "0xabc",
	})
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, withdrawal.ID)
	require.NoError(t, err)
	require.Equal(t, domain.WithdrawalApproved, approved.Status)
	require.NotNil(t, approved.ProcessedAt)
	// Crypto payouts are settled manually; no gateway involved.
	require.Zero(t, gw.calls)
	requireBalances(t, st, account.ID, "0", "30")
}

func TestWithdrawalApproveBankSendsTransfer(t *testing.T) {
	st := setupTestStore(t)
	ledger := NewLedgerService(st, NopNotifier{})
	gw := &stubGateway{ref: "MOCK-REF-7"}
	svc := NewWithdrawalService(st, gw, NopNotifier{})
	account := createTestAccount(t, st, "WITHDRW5")
	ctx := context.Background()

	require.NoError(t, ledger.Credit(ctx, account.ID, domain.BucketWithdrawable, dec("50")))
	withdrawal, err := svc.Submit(ctx, SubmitWithdrawalRequest{
		AccountID:     account.ID,
		Kind:          domain.WithdrawalKindBank,
		Amount:        dec("20"),
		BankName:      "First Bank",
		AccountNumber: "0123456789",
		AccountHolder: "Jane Doe",
	})
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, withdrawal.ID)
	require.NoError(t, err)
	require.Equal(t, domain.WithdrawalApproved, approved.Status)
	require.Equal(t, 1, gw.calls)
	require.NotNil(t, approved.TransferRef)
	require.Equal(t, "MOCK-REF-7", *approved.TransferRef)

	// Approving again is a no-op; no second transfer.
	_, err = svc.Approve(ctx, withdrawal.ID)
	require.NoError(t, err)
	require.Equal(t, 1, gw.calls)
}

func TestWithdrawalBankFailureRefunds(t *testing.T) {
	st := setupTestStore(t)
	ledger := NewLedgerService(st, NopNotifier{})
	gw := &stubGateway{err: errors.New("gateway down")}
	svc := NewWithdrawalService(st, gw, NopNotifier{})
	account := createTestAccount(t, st, "WITHDRW6")
	ctx := context.Background()

	require.NoError(t, ledger.Credit(ctx, account.ID, domain.BucketWithdrawable, dec("50")))
	withdrawal, err := svc.Submit(ctx, SubmitWithdrawalRequest{
		AccountID:     account.ID,
		Kind:          domain.WithdrawalKindBank,
		Amount:        dec("20"),
		BankName:      "First Bank",
		AccountNumber: "0123456789",
		AccountHolder: "Jane Doe",
	})
	require.NoError(t, err)
	requireBalances(t, st, account.ID, "0", "30")

	failed, err := svc.Approve(ctx, withdrawal.ID)
	require.NoError(t, err)
	require.Equal(t, domain.WithdrawalFailed, failed.Status)
	requireBalances(t, st, account.ID, "0", "50")
}
