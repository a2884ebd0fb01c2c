package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func band(name, min string, max *decimal.Decimal) RankBand {
	return RankBand{Name: name, MinBalance: d(min), MaxBalance: max, DailyProfitPct: d("1"), TradeQuota: 5}
}

func TestNewRankTableValidation(t *testing.T) {
	tests := []struct {
		name    string
		bands   []RankBand
		wantErr string
	}{
		{
			name: "valid contiguous table",
			bands: []RankBand{
				band("Gold", "2000", nil),
				band("Bronze", "7.5", dp("500")),
				band("Silver", "500", dp("2000")),
			},
		},
		{
			name: "gap between bands",
			bands: []RankBand{
				band("Bronze", "7.5", dp("500")),
				band("Silver", "600", dp("2000")),
			},
			wantErr: "not contiguous",
		},
		{
			name: "overlapping bands",
			bands: []RankBand{
				band("Bronze", "7.5", dp("500")),
				band("Silver", "400", dp("2000")),
			},
			wantErr: "not contiguous",
		},
		{
			name: "unbounded band below another",
			bands: []RankBand{
				band("Bronze", "7.5", nil),
				band("Silver", "500", dp("2000")),
			},
			wantErr: "top band",
		},
		{
			name: "min at or above max",
			bands: []RankBand{
				band("Bronze", "500", dp("500")),
			},
			wantErr: "not below max",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			table, err := NewRankTable(tc.bands)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			bands := table.Bands()
			require.Equal(t, "Bronze", bands[0].Name)
			require.Equal(t, "Gold", bands[len(bands)-1].Name)
		})
	}
}

func TestRankTableMatch(t *testing.T) {
	table, err := NewRankTable([]RankBand{
		band("Bronze", "7.5", dp("500")),
		band("Silver", "500", dp("2000")),
		band("Gold", "2000", nil),
	})
	require.NoError(t, err)

	tests := []struct {
		principal string
		want      string
	}{
		{"0", ""},
		{"-10", ""},
		{"5", ""},
		{"7.5", "Bronze"},
		{"499.99", "Bronze"},
		{"500", "Silver"},
		{"1999.99", "Silver"},
		{"2000", "Gold"},
		{"1000000", "Gold"},
	}
	for _, tc := range tests {
		got := table.Match(d(tc.principal))
		if tc.want == "" {
			require.Nil(t, got, "principal %s", tc.principal)
			continue
		}
		require.NotNil(t, got, "principal %s", tc.principal)
		require.Equal(t, tc.want, got.Name, "principal %s", tc.principal)
	}
}
