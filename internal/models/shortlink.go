package models

// CalculationType tells a short link which kind of calculation it points to.
type CalculationType string

const (
	CalculationTypeBasic  CalculationType = "basic"
	CalculationTypeExpert CalculationType = "expert"
)

// Valid reports whether t is a known calculation type.
func (t CalculationType) Valid() bool {
	return t == CalculationTypeBasic || t == CalculationTypeExpert
}

// ShortLink maps a short code to a calculation.
type ShortLink struct {
	// Seq is the store-assigned sequence number the code is derived from.
	Seq int64 `json:"seq"`

	// Code is Seq in base 36.
	Code string `json:"code"`

	CalculationType CalculationType `json:"calculationType"`
	CalculationID   string          `json:"calculationId"`
	CreatedAt       int64           `json:"createdAt"`
}
