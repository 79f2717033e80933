package models

// Participant is one person in a basic (flat) calculation.
type Participant struct {
	// ID is the client-assigned identifier of the participant.
	ID string `json:"id"`

	// Name is the display name. It may be empty while the user is typing.
	Name string `json:"name"`

	// Price is the raw price expression as typed, e.g. "12000+3500".
	Price string `json:"price"`

	// TotalPrice is Price resolved through the addition-expression parser.
	TotalPrice float64 `json:"totalPrice"`

	// TotalToPay is the final payable amount after the participant's share
	// of discount and tax.
	TotalToPay float64 `json:"totalToPay"`
}

// Calculation is a saved basic calculation.
type Calculation struct {
	// ID is the unique identifier for the calculation (UUID format).
	ID string `json:"id"`

	// Title is a human-readable name, auto-generated from participant names
	// when left empty.
	Title string `json:"title"`

	// DiscountValue is the discount expression as typed.
	DiscountValue string `json:"discountValue"`

	// DiscountResult is DiscountValue resolved to a number.
	DiscountResult float64 `json:"discountResult"`

	// TaxValue is the tax/shipping expression as typed.
	TaxValue string `json:"taxValue"`

	// TaxResult is TaxValue resolved to a number.
	TaxResult float64 `json:"taxResult"`

	// Persons are the participants. A calculation always has at least one.
	Persons []Participant `json:"persons"`

	// OverallTotal is the sum of all participants' TotalPrice.
	OverallTotal float64 `json:"overallTotal"`

	// FinalTotal is the sum of all participants' TotalToPay.
	FinalTotal float64 `json:"finalTotal"`

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}
