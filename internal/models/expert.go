package models

import "encoding/json"

// Category classifies an item. It is informational only and never affects
// the split.
type Category string

const (
	CategoryFood  Category = "food"
	CategoryDrink Category = "drink"
	CategoryOther Category = "other"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryDrink, CategoryOther:
		return true
	}
	return false
}

// Item is a single priced line on an itemized receipt.
type Item struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Category Category `json:"category"`
}

// Person is a participant in an expert calculation. Color is a presentation
// tag (hex string) and plays no part in the calculation.
type Person struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Assignment links an item to a person responsible for part of its cost.
// Assignments have set semantics: a duplicate pair means the same as one.
type Assignment struct {
	ItemID   string `json:"itemId"`
	PersonID string `json:"personId"`
}

// ExpertCalculation is a saved itemized calculation.
type ExpertCalculation struct {
	// ID is the unique identifier for the calculation (UUID format).
	ID string `json:"id"`

	// Title is a human-readable name, auto-generated from person names when
	// left empty.
	Title string `json:"title"`

	Items       []Item       `json:"items"`
	Persons     []Person     `json:"persons"`
	Assignments []Assignment `json:"assignments"`

	// DiscountValue and TaxValue are the adjustment expressions as typed.
	// Either may be empty when the numbers came from a receipt.
	DiscountValue string `json:"discountValue"`
	TaxValue      string `json:"taxValue"`

	Discount   float64 `json:"discount"`
	Tax        float64 `json:"tax"`
	Subtotal   float64 `json:"subtotal"`
	FinalTotal float64 `json:"finalTotal"`

	// ReceiptData is the raw receipt JSON the calculation was created from,
	// if any. It is stored opaquely.
	ReceiptData json.RawMessage `json:"receiptData,omitempty"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// PersonColors is the palette handed out to persons in order of creation.
var PersonColors = []string{"#8B5CF6", "#F59E0B", "#EF4444", "#10B981", "#3B82F6", "#F97316"}

// ColorFor returns the palette color for the person at index i.
func ColorFor(i int) string {
	return PersonColors[i%len(PersonColors)]
}
