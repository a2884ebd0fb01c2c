package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrAccountBanned      = errors.New("account is banned")
	ErrInvalidCode        = errors.New("invalid promo code")
	ErrPromoExpired       = errors.New("promo code expired")
	ErrUsageLimitReached  = errors.New("promo usage limit reached")
	ErrAlreadyRedeemed    = errors.New("promo already redeemed")
	ErrTradeLimitReached  = errors.New("copy trade limit reached for the last 24 hours")
	ErrNoRank             = errors.New("no rank assigned")
	ErrRewardClaimed      = errors.New("daily reward already claimed today")
	ErrLeaseUnavailable   = errors.New("no wallet address available")
	ErrLedgerInconsistent = errors.New("locked balance lower than expiring deposit amount")
)
