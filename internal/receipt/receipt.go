// Package receipt turns structured receipt data (as produced by the receipt
// extraction pipeline) into expert calculations.
//
// Incoming JSON goes through Parse, which validates its shape, and Normalize,
// which explodes multi-quantity lines, rounds amounts and builds the default
// person. Both return a *ValidationError for input they cannot accept.
package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
)

// LineItem is one purchased line on a receipt.
type LineItem struct {
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

// Adjustment is a single fee or discount line.
type Adjustment struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}

// Receipt is the structured form of a scanned receipt.
type Receipt struct {
	TransactionID   string       `json:"transaction_id"`
	TransactionDate string       `json:"transaction_date,omitempty"`
	CustomerName    string       `json:"customer_name,omitempty"`
	TotalPaid       float64      `json:"total_paid,omitempty"`
	BillingAmount   float64      `json:"billing_amount,omitempty"`
	Items           []LineItem   `json:"items"`
	Fees            []Adjustment `json:"fees,omitempty"`
	TotalFees       float64      `json:"total_fees"`
	Discounts       []Adjustment `json:"discounts,omitempty"`
	TotalDiscounts  float64      `json:"total_discounts"`
	Subtotal        float64      `json:"subtotal"`
	FinalTotal      float64      `json:"final_total"`
}

// ValidationError reports receipt data that cannot be turned into a
// calculation.
type ValidationError struct {
	// Field is the offending JSON field, if the problem is tied to one.
	Field string

	// Details is a human-readable description of the problem.
	Details string

	// TooLarge marks a well-formed receipt that expands past MaxItems.
	TooLarge bool
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid receipt: " + e.Details
	}
	return fmt.Sprintf("invalid receipt: %s: %s", e.Field, e.Details)
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// Parse decodes receipt JSON. The items array is required; every other field
// defaults to its zero value.
func Parse(data []byte) (*Receipt, error) {
	var r Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &ValidationError{Field: typeErr.Field, Details: "expected " + typeErr.Type.String()}
		}
		return nil, &ValidationError{Details: "body is not valid JSON"}
	}
	if r.Items == nil {
		return nil, &ValidationError{Field: "items", Details: "items array is required"}
	}
	return &r, nil
}
