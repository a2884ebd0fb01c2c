package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account holds a user's principal funds split into a time-locked bucket and
// a freely withdrawable bucket. The rank is derived from the principal
// balance and is recomputed by the ledger after every balance mutation.
type Account struct {
	ID                  uuid.UUID       `json:"id"`
	Email               string          `json:"email"`
	ReferralCode        string          `json:"referral_code"`
	RankID              *uuid.UUID      `json:"rank_id,omitempty"`
	LockedBalance       decimal.Decimal `json:"locked_balance"`
	WithdrawableBalance decimal.Decimal `json:"withdrawable_balance"`
	TotalReferrals      int             `json:"total_referrals"`
	ValidReferrals      int             `json:"valid_referrals"`
	ReferralEarnings    decimal.Decimal `json:"referral_earnings"`
	Banned              bool            `json:"banned"`
	LastWithdrawalAt    *time.Time      `json:"last_withdrawal_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// PrincipalBalance is the sole input to rank determination.
func (a *Account) PrincipalBalance() decimal.Decimal {
	return a.LockedBalance.Add(a.WithdrawableBalance)
}

type Bucket string

const (
	BucketLocked       Bucket = "locked"
	BucketWithdrawable Bucket = "withdrawable"
)

type DepositKind string

const (
	DepositKindCrypto  DepositKind = "crypto"
	DepositKindGateway DepositKind = "gateway"
	DepositKindPromo   DepositKind = "promo"
)

type DepositStatus string

const (
	DepositPending  DepositStatus = "pending"
	DepositApproved DepositStatus = "approved"
	DepositRejected DepositStatus = "rejected"
	DepositExpired  DepositStatus = "expired"
)

// Deposit models both direct crypto deposits and gateway-mediated ones as a
// single record distinguished by Kind. Approved deposits lock funds until
// ExpiresAt, after which the reaper releases them.
type Deposit struct {
	ID            uuid.UUID       `json:"id"`
	AccountID     uuid.UUID       `json:"account_id"`
	Kind          DepositKind     `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	Network       string          `json:"network"`
	WalletAddress string          `json:"wallet_address,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	Status        DepositStatus   `json:"status"`
	ReferrerID    *uuid.UUID      `json:"referrer_id,omitempty"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Referral is the immutable record of a bonus credited to a referrer when a
// referred deposit was approved. Exactly one exists per qualifying approval.
type Referral struct {
	ID         uuid.UUID       `json:"id"`
	ReferrerID uuid.UUID       `json:"referrer_id"`
	RefereeID  uuid.UUID       `json:"referee_id"`
	DepositID  uuid.UUID       `json:"deposit_id"`
	Bonus      decimal.Decimal `json:"bonus"`
	CreatedAt  time.Time       `json:"created_at"`
}

type TradeDirection string

const (
	TradeBuy  TradeDirection = "buy"
	TradeSell TradeDirection = "sell"
)

type TradeStatus string

const (
	TradePending   TradeStatus = "pending"
	TradeCompleted TradeStatus = "completed"
	TradeCancelled TradeStatus = "cancelled"
)

// CopyTrade is a simulated trade. Profit fluctuates while pending and is
// frozen on completion, at which point it is credited to the withdrawable
// bucket exactly once.
type CopyTrade struct {
	ID          uuid.UUID       `json:"id"`
	AccountID   uuid.UUID       `json:"account_id"`
	Pair        string          `json:"pair"`
	Direction   TradeDirection  `json:"direction"`
	Amount      decimal.Decimal `json:"amount"`
	Profit      decimal.Decimal `json:"profit"`
	Status      TradeStatus     `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

type PromoStatus string

const (
	PromoActive   PromoStatus = "active"
	PromoDisabled PromoStatus = "disabled"
)

type PromoCode struct {
	ID         uuid.UUID       `json:"id"`
	Code       string          `json:"code"`
	BonusMin   decimal.Decimal `json:"bonus_min"`
	BonusMax   decimal.Decimal `json:"bonus_max"`
	Expiration *time.Time      `json:"expiration,omitempty"`
	UsageLimit *int            `json:"usage_limit,omitempty"`
	UsageCount int             `json:"usage_count"`
	Status     PromoStatus     `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

// PromoRedemption is unique per (account, promo code).
type PromoRedemption struct {
	ID        uuid.UUID       `json:"id"`
	AccountID uuid.UUID       `json:"account_id"`
	PromoID   uuid.UUID       `json:"promo_id"`
	Bonus     decimal.Decimal `json:"bonus"`
	CreatedAt time.Time       `json:"created_at"`
}

// WalletLease is a time-bounded exclusive claim on a shared deposit address.
// At most one active lease may hold a (network, address) pair.
type WalletLease struct {
	Network   string    `json:"network"`
	Address   string    `json:"address"`
	HolderID  uuid.UUID `json:"holder_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type WithdrawalKind string

const (
	WithdrawalKindCrypto WithdrawalKind = "crypto"
	WithdrawalKindBank   WithdrawalKind = "bank"
)

type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "pending"
	WithdrawalApproved WithdrawalStatus = "approved"
	WithdrawalRejected WithdrawalStatus = "rejected"
	WithdrawalFailed   WithdrawalStatus = "failed"
)

// Withdrawal debits the withdrawable bucket at submission time and refunds it
// on rejection or transfer failure.
type Withdrawal struct {
	ID            uuid.UUID        `json:"id"`
	AccountID     uuid.UUID        `json:"account_id"`
	Kind          WithdrawalKind   `json:"kind"`
	Amount        decimal.Decimal  `json:"amount"`
	Network       string           `json:"network,omitempty"`
	WalletAddress string           `json:"wallet_address,omitempty"`
	BankName      string           `json:"bank_name,omitempty"`
	AccountNumber string           `json:"account_number,omitempty"`
	AccountHolder string           `json:"account_holder,omitempty"`
	Status        WithdrawalStatus `json:"status"`
	TransferRef   *string          `json:"transfer_ref,omitempty"`
	ProcessedAt   *time.Time       `json:"processed_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

type RewardClaim struct {
	ID        uuid.UUID       `json:"id"`
	AccountID uuid.UUID       `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	ClaimedAt time.Time       `json:"claimed_at"`
}

type Notification struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
