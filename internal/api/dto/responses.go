package dto

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewHealthResponse creates a healthy response.
func NewHealthResponse() HealthResponse {
	return HealthResponse{Status: "ok", Message: "API server is running"}
}

// ReceiptResponse is returned after a receipt has been saved as an expert
// calculation.
type ReceiptResponse struct {
	Success       bool   `json:"success"`
	CalculationID string `json:"calculation_id"`

	// ShortCode is nil when no short link was created.
	ShortCode *string `json:"short_code,omitempty"`

	URL     string       `json:"url"`
	EditURL string       `json:"edit_url"`
	Message string       `json:"message"`
	Data    *ReceiptData `json:"data,omitempty"`
}

// ReceiptData summarizes the saved calculation.
type ReceiptData struct {
	ItemsCount   int     `json:"items_count"`
	PersonsCount int     `json:"persons_count"`
	Subtotal     float64 `json:"subtotal"`
	Discount     float64 `json:"discount"`
	Tax          float64 `json:"tax"`
	FinalTotal   float64 `json:"final_total"`
}
