package skips

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTotalPrice(t *testing.T) {
	cases := []struct {
		name  string
		price string
		vat   string
		want  string
	}{
		{"standard rate", "150", "0.2", "180.00"},
		{"zero vat", "99.99", "0", "99.99"},
		{"full rate", "10", "1", "20.00"},
		{"rounds half up", "0.125", "0", "0.13"},
		{"rounds half up after vat", "278.75", "0.2", "334.50"},
		{"free", "0", "0.2", "0.00"},
		{"sub-penny result", "1.005", "0", "1.01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := TotalPrice(dec(tc.price), dec(tc.vat))
			require.NoError(t, err)
			require.Equal(t, tc.want, got.StringFixed(2))
		})
	}
}

func TestTotalPriceRejectsOutOfRange(t *testing.T) {
	cases := []struct {
		price, vat, field string
	}{
		{"-1", "0.2", "price_before_vat"},
		{"10", "-0.01", "vat"},
		{"10", "1.5", "vat"},
	}
	for _, tc := range cases {
		_, err := TotalPrice(dec(tc.price), dec(tc.vat))
		var inv *InvariantError
		require.True(t, errors.As(err, &inv), "price=%s vat=%s", tc.price, tc.vat)
		require.Equal(t, tc.field, inv.Field)
	}
}

func TestTotalPriceNeverBelowNet(t *testing.T) {
	for _, p := range []string{"0", "0.01", "3.33", "100", "1234.56"} {
		for _, v := range []string{"0", "0.05", "0.175", "0.2", "1"} {
			a, err := TotalPrice(dec(p), dec(v))
			require.NoError(t, err)
			b, _ := TotalPrice(dec(p), dec(v))
			require.True(t, a.Equal(b))
			require.True(t, a.GreaterThanOrEqual(dec(p)), "price=%s vat=%s total=%s", p, v, a)
		}
	}
}

func TestFormatGBP(t *testing.T) {
	require.Equal(t, "£180.00", FormatGBP(dec("180")))
	require.Equal(t, "£0.50", FormatGBP(dec("0.5")))
	require.Equal(t, "-£3.10", FormatGBP(dec("-3.1")))
}
