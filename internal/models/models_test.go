package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestMoneyMarshalsTwoFractionDigits(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"165", `"165.00"`},
		{"150.5", `"150.50"`},
		{"12.50", `"12.50"`},
		{"0", `"0.00"`},
	}
	for _, tc := range cases {
		b, err := json.Marshal(NewMoney(mustDecimal(t, tc.in)))
		require.NoError(t, err)
		require.Equal(t, tc.want, string(b))
	}
}

func TestMoneyUnmarshalRoundTrip(t *testing.T) {
	var m Money
	require.NoError(t, json.Unmarshal([]byte(`"12.50"`), &m))
	require.Equal(t, `"12.50"`, func() string {
		b, err := json.Marshal(m)
		require.NoError(t, err)
		return string(b)
	}())
}

func TestUnitPrice(t *testing.T) {
	p := Product{Price: NewMoney(mustDecimal(t, "120.00"))}
	require.Equal(t, "120.00", p.UnitPrice().StringFixed(2))

	dp := NewMoney(mustDecimal(t, "90.00"))
	p.DiscountedPrice = &dp
	require.Equal(t, "90.00", p.UnitPrice().StringFixed(2))

	zero := NewMoney(decimal.Zero)
	p.DiscountedPrice = &zero
	require.Equal(t, "120.00", p.UnitPrice().StringFixed(2))
}
