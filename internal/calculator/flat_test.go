package calculator

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/nekolators/internal/models"
)

func TestPersonBreakdown(t *testing.T) {
	tests := []struct {
		name                                      string
		personTotal, overall, discount, tax       float64
		wantPct, wantDiscount, wantTax, wantFinal float64
	}{
		{
			name:        "half of the bill",
			personTotal: 50000, overall: 100000, discount: 10000, tax: 4000,
			wantPct: 0.5, wantDiscount: 5000, wantTax: 2000, wantFinal: 47000,
		},
		{
			name:        "zero overall total pays raw price",
			personTotal: 0, overall: 0, discount: 10000, tax: 4000,
			wantFinal: 0,
		},
		{
			name:        "no adjustments",
			personTotal: 30000, overall: 90000,
			wantPct: 1.0 / 3, wantFinal: 30000,
		},
		{
			name:        "sole participant takes everything",
			personTotal: 20000, overall: 20000, discount: 5000, tax: 1000,
			wantPct: 1, wantDiscount: 5000, wantTax: 1000, wantFinal: 16000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PersonBreakdown(tt.personTotal, tt.overall, tt.discount, tt.tax)
			assert.InDelta(t, tt.wantPct, got.PercentageOfTotal, 1e-9)
			assert.InDelta(t, tt.wantDiscount, got.DiscountAmount, 1e-9)
			assert.InDelta(t, tt.wantTax, got.TaxAmount, 1e-9)
			assert.InDelta(t, tt.wantFinal, got.FinalAmount, 1e-9)
		})
	}
}

func TestPersonBreakdown_ZeroOverallKeepsRawPrice(t *testing.T) {
	// A negative and a positive entry can cancel out to zero.
	got := PersonBreakdown(-500, 0, 100, 100)
	assert.Equal(t, Breakdown{FinalAmount: -500}, got)
}

func TestOverallAndFinalTotal(t *testing.T) {
	participants := []models.Participant{
		{ID: "1", TotalPrice: 10000, TotalToPay: 9500},
		{ID: "2", TotalPrice: 20000, TotalToPay: 19000},
	}
	assert.Equal(t, 30000.0, OverallTotal(participants))
	assert.Equal(t, 28500.0, FinalTotal(participants))
	assert.Zero(t, OverallTotal(nil))
	assert.Zero(t, FinalTotal(nil))
}

func TestCalculateFlat(t *testing.T) {
	participants := []models.Participant{
		{ID: "1", Name: "Ayu", Price: "25000+5000"},
		{ID: "2", Name: "Budi", Price: "60000"},
		{ID: "3", Name: "Citra", Price: ""},
	}

	result := CalculateFlat(participants, "10000+5000", "4500")

	assert.Equal(t, 15000.0, result.DiscountResult)
	assert.Equal(t, 4500.0, result.TaxResult)
	assert.Equal(t, 90000.0, result.OverallTotal)
	require.Len(t, result.Participants, 3)

	// Ayu: 30000/90000 = 1/3 -> -5000 discount, +1500 tax
	assert.InDelta(t, 30000, result.Participants[0].TotalPrice, 1e-9)
	assert.InDelta(t, 26500, result.Participants[0].TotalToPay, 1e-6)
	// Budi: 2/3 -> -10000 discount, +3000 tax
	assert.InDelta(t, 53000, result.Participants[1].TotalToPay, 1e-6)
	// Citra entered nothing
	assert.Zero(t, result.Participants[2].TotalToPay)

	assert.InDelta(t, 79500, result.FinalTotal, 1e-6)
	assert.InDelta(t, 1.0/3, result.Breakdowns["1"].PercentageOfTotal, 1e-9)

	// Input is untouched.
	assert.Zero(t, participants[0].TotalPrice)
}

func TestCalculateFlat_AllZeroEntries(t *testing.T) {
	result := CalculateFlat([]models.Participant{{ID: "1"}, {ID: "2", Price: "abc"}}, "5000", "1000")

	for _, p := range result.Participants {
		assert.Zero(t, p.TotalToPay)
		b := result.Breakdowns[p.ID]
		assert.Zero(t, b.DiscountAmount)
		assert.Zero(t, b.TaxAmount)
	}
}

func TestPersonBreakdown_DistributesWholeDiscountAndTax(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for run := 0; run < 200; run++ {
		n := 1 + rng.IntN(8)
		totals := make([]float64, n)
		var overall float64
		for i := range totals {
			totals[i] = float64(rng.IntN(500000))
			overall += totals[i]
		}
		if overall == 0 {
			continue
		}
		discount := float64(rng.IntN(100000))
		tax := float64(rng.IntN(50000))

		var sumDiscount, sumTax, sumFinal float64
		for _, total := range totals {
			b := PersonBreakdown(total, overall, discount, tax)
			sumDiscount += b.DiscountAmount
			sumTax += b.TaxAmount
			sumFinal += b.FinalAmount

			// Pure: identical inputs give identical outputs.
			assert.Equal(t, b, PersonBreakdown(total, overall, discount, tax))
		}

		assert.InDelta(t, discount, sumDiscount, 1e-6)
		assert.InDelta(t, tax, sumTax, 1e-6)
		assert.InDelta(t, overall-discount+tax, sumFinal, 1e-6)
	}
}
