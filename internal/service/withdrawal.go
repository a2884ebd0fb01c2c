package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/greyfinance/ledger-engine/internal/domain"
	"github.com/greyfinance/ledger-engine/internal/gateway"
	"github.com/greyfinance/ledger-engine/internal/storage"
)

var ErrWithdrawalBelowMinimum = errors.New("withdrawal amount below minimum")

// WithdrawalService debits the withdrawable bucket at submission and refunds
// it when a withdrawal is rejected or the bank transfer fails.
type WithdrawalService struct {
	store    storage.Store
	gateway  gateway.Gateway
	notifier Notifier
	now      func() time.Time
}

func NewWithdrawalService(store storage.Store, gw gateway.Gateway, notifier Notifier) *WithdrawalService {
	return &WithdrawalService{
		store:    store,
		gateway:  gw,
		notifier: notifier,
		now:      time.Now,
	}
}

// SubmitWithdrawalRequest carries either a crypto destination or bank
// details, depending on Kind.
type SubmitWithdrawalRequest struct {
	AccountID     uuid.UUID
	Kind          domain.WithdrawalKind
	Amount        decimal.Decimal
	Network       string
	WalletAddress string
	BankName      string
	AccountNumber string
	AccountHolder string
}

func (r SubmitWithdrawalRequest) validate() error {
	if r.Amount.LessThan(domain.MinWithdrawal) {
		return fmt.Errorf("%w: minimum is %s", ErrWithdrawalBelowMinimum, domain.MinWithdrawal)
	}
	switch r.Kind {
	case domain.WithdrawalKindCrypto:
		if strings.TrimSpace(r.WalletAddress) == "" {
			return errors.New("wallet_address is required")
		}
	case domain.WithdrawalKindBank:
		if strings.TrimSpace(r.AccountNumber) == "" {
			return errors.New("account_number is required")
		}
	default:
		return fmt.Errorf("unknown withdrawal kind: %s", r.Kind)
	}
	return nil
}

// Submit debits the withdrawable bucket and records a pending withdrawal.
func (s *WithdrawalService) Submit(ctx context.Context, req SubmitWithdrawalRequest) (*domain.Withdrawal, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	amount := req.Amount.Round(2)
	withdrawal := &domain.Withdrawal{
		ID:            uuid.New(),
		AccountID:     req.AccountID,
		Kind:          req.Kind,
		Amount:        amount,
		Network:       req.Network,
		WalletAddress: req.WalletAddress,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		AccountHolder: req.AccountHolder,
		Status:        domain.WithdrawalPending,
		CreatedAt:     s.now(),
	}

	var events []event
	err := s.store.RunInTx(ctx, func(q storage.Querier) error {
		account, err := q.GetAccountForUpdate(ctx, req.AccountID)
		if err != nil {
			return err
		}
		if account.Banned {
			return domain.ErrAccountBanned
		}
		if err := debitTx(ctx, q, account, domain.BucketWithdrawable, amount); err != nil {
			return err
		}
		if err := q.CreateWithdrawal(ctx, withdrawal); err != nil {
			return err
		}
		now := s.now()
		if err := q.SetAccountLastWithdrawal(ctx, account.ID, now); err != nil {
			return err
		}
		change, err := recomputeRankTx(ctx, q, account)
		if err != nil {
			return err
		}
		if change != nil {
			return recordEvent(ctx, q, &events, account.ID, now, change.message())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.notifier, events)
	return withdrawal, nil
}

// Approve finalizes a pending withdrawal. Bank withdrawals go through the
// transfer gateway first; a gateway failure marks the withdrawal failed and
// refunds the debited amount. Approving a non-pending withdrawal is a no-op.
func (s *WithdrawalService) Approve(ctx context.Context, withdrawalID uuid.UUID) (*domain.Withdrawal, error) {
	// Claim the pending row before the gateway call so two concurrent
	// approvals cannot both send the transfer.
	var withdrawal *domain.Withdrawal
	claimed := false
	err := s.store.RunInTx(ctx, func(q storage.Querier) error {
		var err error
		withdrawal, err = q.GetWithdrawalForUpdate(ctx, withdrawalID)
		if err != nil {
			return err
		}
		if withdrawal.Status != domain.WithdrawalPending {
			return nil
		}
		now := s.now()
		withdrawal.Status = domain.WithdrawalApproved
		withdrawal.ProcessedAt = &now
		claimed = true
		return q.UpdateWithdrawal(ctx, withdrawal)
	})
	if err != nil {
		return nil, err
	}
	if !claimed {
		return withdrawal, nil
	}

	if withdrawal.Kind == domain.WithdrawalKindBank {
		destination := fmt.Sprintf("%s (%s, %s)", withdrawal.AccountHolder, withdrawal.BankName, withdrawal.AccountNumber)
		ref, err := s.gateway.SendTransfer(ctx, destination, withdrawal.Amount)
		if err != nil {
			zap.L().Error("bank transfer failed",
				zap.Error(err),
				zap.String("withdrawal_id", withdrawal.ID.String()),
			)
			return s.fail(ctx, withdrawal.ID, err.Error())
		}
		withdrawal.TransferRef = &ref
		if err := s.store.UpdateWithdrawal(ctx, withdrawal); err != nil {
			return nil, err
		}
	}

	s.notifyStatus(ctx, withdrawal, "approved")
	return withdrawal, nil
}

// Reject refunds a pending withdrawal. A no-op for non-pending withdrawals.
func (s *WithdrawalService) Reject(ctx context.Context, withdrawalID uuid.UUID) (*domain.Withdrawal, error) {
	var (
		withdrawal *domain.Withdrawal
		events     []event
	)
	err := s.store.RunInTx(ctx, func(q storage.Querier) error {
		var err error
		withdrawal, err = q.GetWithdrawalForUpdate(ctx, withdrawalID)
		if err != nil {
			return err
		}
		if withdrawal.Status != domain.WithdrawalPending {
			return nil
		}
		now := s.now()
		withdrawal.Status = domain.WithdrawalRejected
		withdrawal.ProcessedAt = &now
		if err := q.UpdateWithdrawal(ctx, withdrawal); err != nil {
			return err
		}
		return s.refundTx(ctx, q, &events, withdrawal, now)
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.notifier, events)
	return withdrawal, nil
}

// fail marks an approved-but-unsent withdrawal failed and refunds it.
func (s *WithdrawalService) fail(ctx context.Context, withdrawalID uuid.UUID, reason string) (*domain.Withdrawal, error) {
	var (
		withdrawal *domain.Withdrawal
		events     []event
	)
	err := s.store.RunInTx(ctx, func(q storage.Querier) error {
		var err error
		withdrawal, err = q.GetWithdrawalForUpdate(ctx, withdrawalID)
		if err != nil {
			return err
		}
		if withdrawal.Status != domain.WithdrawalApproved {
			return nil
		}
		now := s.now()
		withdrawal.Status = domain.WithdrawalFailed
		withdrawal.ProcessedAt = &now
		if err := q.UpdateWithdrawal(ctx, withdrawal); err != nil {
			return err
		}
		return s.refundTx(ctx, q, &events, withdrawal, now)
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.notifier, events)
	zap.L().Warn("withdrawal marked failed",
		zap.String("withdrawal_id", withdrawalID.String()),
		zap.String("reason", reason),
	)
	return withdrawal, nil
}

func (s *WithdrawalService) refundTx(ctx context.Context, q storage.Querier, events *[]event, w *domain.Withdrawal, now time.Time) error {
	account, err := q.GetAccountForUpdate(ctx, w.AccountID)
	if err != nil {
		return err
	}
	if err := creditTx(ctx, q, account, domain.BucketWithdrawable, w.Amount); err != nil {
		return err
	}
	change, err := recomputeRankTx(ctx, q, account)
	if err != nil {
		return err
	}
	if change != nil {
		if err := recordEvent(ctx, q, events, account.ID, now, change.message()); err != nil {
			return err
		}
	}
	return recordEvent(ctx, q, events, account.ID, now,
		fmt.Sprintf("Your withdrawal of %s was returned to your balance.", w.Amount))
}

func (s *WithdrawalService) notifyStatus(ctx context.Context, w *domain.Withdrawal, status string) {
	message := fmt.Sprintf("Your withdrawal of %s was %s.", w.Amount, status)
	if err := s.store.CreateNotification(ctx, &domain.Notification{
		ID:        uuid.New(),
		AccountID: w.AccountID,
		Message:   message,
		CreatedAt: s.now(),
	}); err != nil {
		zap.L().Warn("failed to record withdrawal notification", zap.Error(err))
	}
	publish(ctx, s.notifier, []event{{accountID: w.AccountID, message: message}})
}

func (s *WithdrawalService) ListByAccount(ctx context.Context, accountID uuid.UUID, page, pageSize int) ([]domain.Withdrawal, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.store.ListWithdrawalsByAccount(ctx, accountID, pageSize, (page-1)*pageSize)
}
