package calculator

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var half = decimal.NewFromFloat(0.5)

// Round rounds to the nearest integer with halves going toward positive
// infinity, matching the rounding the web client displays with.
// Non-finite values are returned unchanged.
func Round(amount float64) float64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return amount
	}
	return decimal.NewFromFloat(amount).Add(half).Floor().InexactFloat64()
}

// FormatNumber renders an amount rounded to a whole number, e.g. "12500".
func FormatNumber(amount float64) string {
	switch {
	case math.IsNaN(amount):
		return "NaN"
	case math.IsInf(amount, 1):
		return "Infinity"
	case math.IsInf(amount, -1):
		return "-Infinity"
	}
	return decimal.NewFromFloat(amount).Add(half).Floor().String()
}

// FormatGrouped renders a rounded amount with '.' thousand separators, the
// way Indonesian Rupiah amounts are written: 1250000 -> "1.250.000".
func FormatGrouped(amount float64) string {
	s := FormatNumber(amount)
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return s
	}

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}
	return sign + b.String()
}
