package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    MinorUnits
		wantErr bool
	}{
		{"plain", "123.45", 12345, false},
		{"no decimals", "150", 15000, false},
		{"one decimal", "9.5", 950, false},
		{"zero", "0", 0, false},
		{"negative", "-25.50", -2550, false},
		{"large", "920000000.00", 92000000000, false},
		{"three decimals", "1.234", 0, true},
		{"not a number", "abc", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMoney(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMinorUnitsString(t *testing.T) {
	assert.Equal(t, "123.45", MinorUnits(12345).String())
	assert.Equal(t, "0.05", MinorUnits(5).String())
	assert.Equal(t, "0.00", MinorUnits(0).String())
	assert.Equal(t, "-25.50", MinorUnits(-2550).String())
}

func TestParseMoneyRoundTrip(t *testing.T) {
	for _, s := range []string{"123.45", "0.01", "999999.99"} {
		m, err := ParseMoney(s)
		require.NoError(t, err)
		assert.Equal(t, s, m.String())
	}
}

func TestNewMoneyFromFloat(t *testing.T) {
	assert.Equal(t, MinorUnits(12345), NewMoneyFromFloat(123.45))
	assert.Equal(t, MinorUnits(100), NewMoneyFromFloat(1.0))
}

func TestMinMoney(t *testing.T) {
	assert.Equal(t, MinorUnits(100), MinMoney(100, 200))
	assert.Equal(t, MinorUnits(100), MinMoney(200, 100))
	assert.Equal(t, MinorUnits(-50), MinMoney(-50, 0))
}

func TestMinorUnitsPredicates(t *testing.T) {
	assert.True(t, MinorUnits(1).IsPositive())
	assert.True(t, MinorUnits(-1).IsNegative())
	assert.True(t, MinorUnits(0).IsZero())
	assert.Equal(t, MinorUnits(50), MinorUnits(-50).Abs())
	assert.Equal(t, MinorUnits(-50), MinorUnits(50).Neg())
}

func TestQuantity(t *testing.T) {
	assert.True(t, Quantity(3).IsPositive())
	assert.True(t, Quantity(-3).IsNegative())
	assert.Equal(t, int64(3), Quantity(3).Int64())
	assert.Equal(t, "3", Quantity(3).String())
}
