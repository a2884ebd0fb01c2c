package domain

import "github.com/shopspring/decimal"

var (
	MinDeposit    = decimal.RequireFromString("7.5")
	MinWithdrawal = decimal.RequireFromString("2.5")
	DailyReward   = decimal.RequireFromString("0.10")
	ReferralPct   = decimal.RequireFromString("0.08")

	// Trade simulation anchors.
	DefaultDailyTarget = decimal.RequireFromString("0.50")
	MinTradeProfit     = decimal.RequireFromString("0.01")
	MinTradeLot        = decimal.RequireFromString("0.01")
	MaxTradeLot        = decimal.RequireFromString("0.10")
)

const (
	LockDays        = 30
	PromoLockDays   = 30
	ReferralCodeLen = 8

	// Alphabet for referral codes; drops the ambiguous 0/O/1/I.
	ReferralCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var Pairs = []string{
	"BTC/USDT", "ETH/USDT", "SOL/USDT", "BNB/USDT",
	"XRP/USDT", "DOGE/USDT", "ADA/USDT", "AVAX/USDT",
}
