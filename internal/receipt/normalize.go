package receipt

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/nekolators/internal/calculator"
	"github.com/mmynk/nekolators/internal/models"
)

// Mode selects how strictly Normalize treats a receipt.
type Mode int

const (
	// Lenient generates a missing transaction id, guesses item categories
	// from their names and joins the individual fee and discount lines into
	// the adjustment expressions.
	Lenient Mode = iota

	// Strict requires a transaction id, files every item as food and takes
	// the adjustment expressions from the receipt totals.
	Strict
)

// DefaultPersonName names the single person a receipt starts with when it
// carries no customer name.
const DefaultPersonName = "Customer"

// MaxItems caps the number of items a receipt may expand into once line
// quantities are exploded.
const MaxItems = 1000

var drinkKeywords = []string{"java", "latte", "coffee", "tea", "juice", "drink"}

// Normalize builds an unsaved expert calculation from a receipt. In Lenient
// mode a generated transaction id is written back to r. The receipt itself is
// kept as the calculation's receipt data.
func Normalize(r *Receipt, mode Mode, now time.Time) (*models.ExpertCalculation, error) {
	if r.Items == nil {
		return nil, &ValidationError{Field: "items", Details: "items array is required"}
	}
	if r.TransactionID == "" {
		if mode == Strict {
			return nil, &ValidationError{Field: "transaction_id", Details: "transaction_id and items array are required"}
		}
		r.TransactionID = NewTransactionID(now)
	}

	total := 0
	for _, line := range r.Items {
		n := 1
		if line.Quantity > 1 {
			if line.Quantity > MaxItems {
				return nil, &ValidationError{Field: "items", Details: fmt.Sprintf("quantity of %q exceeds %d", line.Name, MaxItems), TooLarge: true}
			}
			n = int(math.Floor(line.Quantity))
		}
		total += n
		if total > MaxItems {
			return nil, &ValidationError{Field: "items", Details: fmt.Sprintf("receipt expands to more than %d items", MaxItems), TooLarge: true}
		}
	}

	items := make([]models.Item, 0, total)
	for idx, line := range r.Items {
		category := models.CategoryFood
		if mode == Lenient {
			category = DetermineCategory(line.Name)
		}

		if line.Quantity > 1 {
			count := int(math.Floor(line.Quantity))
			quantity := formatAmount(line.Quantity)
			for i := 0; i < count; i++ {
				items = append(items, models.Item{
					ID:       fmt.Sprintf("item-%d-%d", idx, i),
					Name:     fmt.Sprintf("%s (%d/%s)", line.Name, i+1, quantity),
					Price:    calculator.Round(line.UnitPrice),
					Category: category,
				})
			}
			continue
		}

		items = append(items, models.Item{
			ID:       fmt.Sprintf("item-%d", idx),
			Name:     line.Name,
			Price:    calculator.Round(line.Total),
			Category: category,
		})
	}

	name := r.CustomerName
	if name == "" {
		name = DefaultPersonName
	}

	calc := &models.ExpertCalculation{
		Items:       items,
		Persons:     []models.Person{{ID: "1", Name: name, Color: models.ColorFor(0)}},
		Assignments: []models.Assignment{},
		Discount:    calculator.Round(r.TotalDiscounts),
		Tax:         calculator.Round(r.TotalFees),
		Subtotal:    calculator.Round(r.Subtotal),
		FinalTotal:  calculator.Round(r.FinalTotal),
	}

	if mode == Strict {
		calc.DiscountValue = totalExpression(r.TotalDiscounts)
		calc.TaxValue = totalExpression(r.TotalFees)
	} else {
		calc.DiscountValue = joinAmounts(r.Discounts)
		calc.TaxValue = joinAmounts(r.Fees)
	}

	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode receipt: %w", err)
	}
	calc.ReceiptData = raw
	return calc, nil
}

// DetermineCategory guesses an item's category from drink keywords in its
// name. Anything else is food.
func DetermineCategory(name string) models.Category {
	lower := strings.ToLower(name)
	for _, kw := range drinkKeywords {
		if strings.Contains(lower, kw) {
			return models.CategoryDrink
		}
	}
	return models.CategoryFood
}

// NewTransactionID returns an id of the form TXN-<unix millis>-<9 base-36 chars>.
func NewTransactionID(now time.Time) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	var suffix [9]byte
	for i := range suffix {
		suffix[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return fmt.Sprintf("TXN-%d-%s", now.UnixMilli(), suffix[:])
}

// joinAmounts writes adjustment lines as an addition expression, e.g.
// "5000+2500".
func joinAmounts(lines []Adjustment) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = formatAmount(l.Amount)
	}
	return strings.Join(parts, "+")
}

// totalExpression renders a receipt total. A zero total reads as no
// expression at all.
func totalExpression(total float64) string {
	if total == 0 {
		return ""
	}
	return formatAmount(total)
}

// formatAmount prints the shortest decimal form of x, so 2500 stays "2500"
// and 0.5 stays "0.5".
func formatAmount(x float64) string {
	return decimal.NewFromFloat(x).String()
}
