package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{2.5, 3},
		{2.4999, 2},
		{-2.5, -2},
		{-2.6, -3},
		{0.49999999999999994, 0},
		{12999.5, 13000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round(tt.in), "Round(%v)", tt.in)
	}
	assert.True(t, math.IsNaN(Round(math.NaN())))
	assert.True(t, math.IsInf(Round(math.Inf(1)), 1))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "12500", FormatNumber(12499.5))
	assert.Equal(t, "0", FormatNumber(-0.3))
	assert.Equal(t, "-1", FormatNumber(-0.6))
	assert.Equal(t, "Infinity", FormatNumber(math.Inf(1)))
	assert.Equal(t, "NaN", FormatNumber(math.NaN()))
}

func TestFormatGrouped(t *testing.T) {
	tests := map[float64]string{
		0:         "0",
		999:       "999",
		1000:      "1.000",
		1250000:   "1.250.000",
		123456789: "123.456.789",
		-45000.4:  "-45.000",
		1234567.5: "1.234.568",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatGrouped(in), "FormatGrouped(%v)", in)
	}
}
