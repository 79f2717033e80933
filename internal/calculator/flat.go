package calculator

import "github.com/mmynk/nekolators/internal/models"

// Breakdown is one participant's share of a flat calculation.
type Breakdown struct {
	PercentageOfTotal float64 `json:"percentageOfTotal"`
	DiscountAmount    float64 `json:"discountAmount"`
	TaxAmount         float64 `json:"taxAmount"`
	FinalAmount       float64 `json:"finalAmount"`
}

// PersonBreakdown computes a participant's proportional share of the shared
// discount and tax.
//
//	percentage = personTotal / overallTotal
//	final      = personTotal - percentage*totalDiscount + percentage*totalTax
//
// When overallTotal is zero nothing is distributed and the participant pays
// their raw total.
func PersonBreakdown(personTotal, overallTotal, totalDiscount, totalTax float64) Breakdown {
	if overallTotal == 0 {
		return Breakdown{FinalAmount: personTotal}
	}

	percentage := personTotal / overallTotal
	discount := percentage * totalDiscount
	tax := percentage * totalTax
	return Breakdown{
		PercentageOfTotal: percentage,
		DiscountAmount:    discount,
		TaxAmount:         tax,
		FinalAmount:       personTotal - discount + tax,
	}
}

// OverallTotal sums the participants' resolved prices.
func OverallTotal(participants []models.Participant) float64 {
	var total float64
	for _, p := range participants {
		total += p.TotalPrice
	}
	return total
}

// FinalTotal sums the participants' payable amounts.
func FinalTotal(participants []models.Participant) float64 {
	var total float64
	for _, p := range participants {
		total += p.TotalToPay
	}
	return total
}

// FlatResult is the outcome of resolving a whole flat calculation.
type FlatResult struct {
	Participants   []models.Participant
	Breakdowns     map[string]Breakdown
	DiscountResult float64
	TaxResult      float64
	OverallTotal   float64
	FinalTotal     float64
}

// CalculateFlat resolves every participant's price expression and the
// discount/tax expressions, then fills in TotalPrice and TotalToPay.
// The input slice is not modified.
func CalculateFlat(participants []models.Participant, discountValue, taxValue string) FlatResult {
	discount := ParseAdditionExpression(discountValue)
	tax := ParseAdditionExpression(taxValue)

	resolved := make([]models.Participant, len(participants))
	for i, p := range participants {
		p.TotalPrice = ParseAdditionExpression(p.Price)
		resolved[i] = p
	}

	overall := OverallTotal(resolved)
	breakdowns := make(map[string]Breakdown, len(resolved))
	for i := range resolved {
		b := PersonBreakdown(resolved[i].TotalPrice, overall, discount, tax)
		resolved[i].TotalToPay = b.FinalAmount
		breakdowns[resolved[i].ID] = b
	}

	return FlatResult{
		Participants:   resolved,
		Breakdowns:     breakdowns,
		DiscountResult: discount,
		TaxResult:      tax,
		OverallTotal:   overall,
		FinalTotal:     FinalTotal(resolved),
	}
}
