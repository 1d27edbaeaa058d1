package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestVATRate(t *testing.T) {
	assert.True(t, VATRate("AT", "AT").Equal(dec("20")))
	assert.True(t, VATRate("DE", "AT").Equal(dec("19")))
	assert.True(t, VATRate("SE", "AT").Equal(dec("25")))

	// Lowercase codes resolve too.
	assert.True(t, VATRate("de", "AT").Equal(dec("19")))

	// Unknown countries use the fallback rate, never zero.
	assert.True(t, VATRate("XX", "AT").Equal(dec("20")))
	assert.True(t, VATRate("", "DE").Equal(dec("19")))

	// A misconfigured fallback still yields the domestic rate, no panic.
	assert.True(t, VATRate("XX", "YY").Equal(dec("20")))
	assert.True(t, VATRate("", "").Equal(dec("20")))
}

func TestRoundMoney(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"9.99", "9.99"},
		{"10", "10"},
		{"2.004", "2.00"},
		{"2.006", "2.01"},
		// Banker's rounding: half goes to the even neighbour.
		{"2.005", "2.00"},
		{"2.015", "2.02"},
		{"2.025", "2.02"},
		{"-2.005", "-2.00"},
	}

	for _, tc := range cases {
		got := RoundMoney(dec(tc.in))
		assert.True(t, got.Equal(dec(tc.want)), "RoundMoney(%s) = %s, want %s", tc.in, got, tc.want)
	}
}
