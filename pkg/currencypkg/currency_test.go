package currencypkg

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestIsValidCode(t *testing.T) {
	testCases := []struct {
		code string
		want bool
	}{
		{"BTC", true},
		{"USDT", true},
		{"eth", true},
		{"X", false},
		{"", false},
		{"TOOLONGCODE1", false},
		{"BT-C", false},
		{"BTC ", false},
	}

	for _, tc := range testCases {
		t.Run(tc.code, func(t *testing.T) {
			require.Equal(t, tc.want, IsValidCode(tc.code))
		})
	}
}

func TestFormat(t *testing.T) {
	require.True(t, IsFiat("USD"))
	require.False(t, IsFiat("XYZT"))

	require.Equal(t, "$1.25", Format("USD", decimal.RequireFromString("1.25")))
	require.Equal(t, "$1.26", Format("USD", decimal.RequireFromString("1.255")))
	require.Equal(t, "7.03125 XYZT", Format("XYZT", decimal.RequireFromString("7.03125")))
}
