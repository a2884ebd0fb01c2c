package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RankBand is one balance band of the admin-curated rank table. MaxBalance is
// nil for the unbounded top band. Immutable at runtime except through the
// admin upsert path.
type RankBand struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	MinBalance     decimal.Decimal  `json:"min_balance"`
	MaxBalance     *decimal.Decimal `json:"max_balance,omitempty"`
	DailyProfitPct decimal.Decimal  `json:"daily_profit_pct"`
	TradeQuota     int              `json:"trade_quota"`
	Color          string           `json:"color"`
	CreatedAt      time.Time        `json:"created_at"`
}

// Contains reports whether the principal balance falls in [min, max).
func (b *RankBand) Contains(principal decimal.Decimal) bool {
	if principal.LessThan(b.MinBalance) {
		return false
	}
	if b.MaxBalance == nil {
		return true
	}
	return principal.LessThan(*b.MaxBalance)
}

// RankTable is an ordered, non-overlapping set of rank bands.
type RankTable struct {
	bands []RankBand
}

// NewRankTable sorts the bands by MinBalance and validates that they are
// contiguous and non-overlapping, with at most one unbounded band at the top.
func NewRankTable(bands []RankBand) (*RankTable, error) {
	sorted := make([]RankBand, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinBalance.LessThan(sorted[j].MinBalance)
	})
	for i := range sorted {
		b := &sorted[i]
		if b.MaxBalance != nil && !b.MinBalance.LessThan(*b.MaxBalance) {
			return nil, fmt.Errorf("rank band %q: min %s not below max %s", b.Name, b.MinBalance, b.MaxBalance)
		}
		if i == len(sorted)-1 {
			continue
		}
		if b.MaxBalance == nil {
			return nil, fmt.Errorf("rank band %q: unbounded band must be the top band", b.Name)
		}
		next := &sorted[i+1]
		if !b.MaxBalance.Equal(next.MinBalance) {
			return nil, fmt.Errorf("rank bands %q and %q are not contiguous", b.Name, next.Name)
		}
	}
	return &RankTable{bands: sorted}, nil
}

// Match returns the band containing the principal balance, or nil when the
// principal is zero or negative, or no band covers it.
func (t *RankTable) Match(principal decimal.Decimal) *RankBand {
	if principal.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	for i := range t.bands {
		if t.bands[i].Contains(principal) {
			return &t.bands[i]
		}
	}
	return nil
}

// ByID returns the band with the given id, or nil.
func (t *RankTable) ByID(id uuid.UUID) *RankBand {
	for i := range t.bands {
		if t.bands[i].ID == id {
			return &t.bands[i]
		}
	}
	return nil
}

// Bands returns the bands in ascending MinBalance order.
func (t *RankTable) Bands() []RankBand {
	out := make([]RankBand, len(t.bands))
	copy(out, t.bands)
	return out
}
