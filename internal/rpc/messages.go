package rpc

import (
	"encoding/json"

	"github.com/mmynk/nekolators/internal/calculator"
	"github.com/mmynk/nekolators/internal/models"
)

// CalculateFlatRequest resolves a flat calculation without saving it.
type CalculateFlatRequest struct {
	Persons       []models.Participant `json:"persons"`
	DiscountValue string               `json:"discountValue"`
	TaxValue      string               `json:"taxValue"`
}

type CalculateFlatResponse struct {
	// Persons carry the resolved TotalPrice and TotalToPay.
	Persons        []models.Participant            `json:"persons"`
	Breakdowns     map[string]calculator.Breakdown `json:"breakdowns"`
	DiscountResult float64                         `json:"discountResult"`
	TaxResult      float64                         `json:"taxResult"`
	OverallTotal   float64                         `json:"overallTotal"`
	FinalTotal     float64                         `json:"finalTotal"`
}

// CalculateExpertRequest computes item assignment totals without saving.
// A non-empty DiscountValue or TaxValue expression takes precedence over the
// matching number.
type CalculateExpertRequest struct {
	Items         []models.Item       `json:"items"`
	Persons       []models.Person     `json:"persons"`
	Assignments   []models.Assignment `json:"assignments"`
	DiscountValue string              `json:"discountValue,omitempty"`
	TaxValue      string              `json:"taxValue,omitempty"`
	Discount      float64             `json:"discount"`
	Tax           float64             `json:"tax"`
}

type CalculateExpertResponse struct {
	Totals          calculator.Totals `json:"totals"`
	Discount        float64           `json:"discount"`
	Tax             float64           `json:"tax"`
	UnassignedItems []models.Item     `json:"unassignedItems"`
}

type CreateCalculationRequest struct {
	Title         string               `json:"title,omitempty"`
	Persons       []models.Participant `json:"persons"`
	DiscountValue string               `json:"discountValue"`
	TaxValue      string               `json:"taxValue"`
}

type CreateCalculationResponse struct {
	Calculation *models.Calculation             `json:"calculation"`
	Breakdowns  map[string]calculator.Breakdown `json:"breakdowns"`
}

type GetCalculationRequest struct {
	ID string `json:"id"`
}

type GetCalculationResponse struct {
	Calculation *models.Calculation             `json:"calculation"`
	Breakdowns  map[string]calculator.Breakdown `json:"breakdowns"`
}

type UpdateCalculationRequest struct {
	ID            string               `json:"id"`
	Title         string               `json:"title,omitempty"`
	Persons       []models.Participant `json:"persons"`
	DiscountValue string               `json:"discountValue"`
	TaxValue      string               `json:"taxValue"`
}

type UpdateCalculationResponse struct {
	Calculation *models.Calculation             `json:"calculation"`
	Breakdowns  map[string]calculator.Breakdown `json:"breakdowns"`
}

type CreateExpertCalculationRequest struct {
	Title         string              `json:"title,omitempty"`
	Items         []models.Item       `json:"items"`
	Persons       []models.Person     `json:"persons"`
	Assignments   []models.Assignment `json:"assignments"`
	DiscountValue string              `json:"discountValue,omitempty"`
	TaxValue      string              `json:"taxValue,omitempty"`
	Discount      float64             `json:"discount"`
	Tax           float64             `json:"tax"`
	ReceiptData   json.RawMessage     `json:"receiptData,omitempty"`
}

type CreateExpertCalculationResponse struct {
	Calculation *models.ExpertCalculation `json:"calculation"`
	Totals      calculator.Totals         `json:"totals"`
}

type GetExpertCalculationRequest struct {
	ID string `json:"id"`
}

type GetExpertCalculationResponse struct {
	Calculation *models.ExpertCalculation `json:"calculation"`
	Totals      calculator.Totals         `json:"totals"`
}

type UpdateExpertCalculationRequest struct {
	ID            string              `json:"id"`
	Title         string              `json:"title,omitempty"`
	Items         []models.Item       `json:"items"`
	Persons       []models.Person     `json:"persons"`
	Assignments   []models.Assignment `json:"assignments"`
	DiscountValue string              `json:"discountValue,omitempty"`
	TaxValue      string              `json:"taxValue,omitempty"`
	Discount      float64             `json:"discount"`
	Tax           float64             `json:"tax"`
	ReceiptData   json.RawMessage     `json:"receiptData,omitempty"`
}

type UpdateExpertCalculationResponse struct {
	Calculation *models.ExpertCalculation `json:"calculation"`
	Totals      calculator.Totals         `json:"totals"`
}

type CreateShortLinkRequest struct {
	CalculationID   string                 `json:"calculationId"`
	CalculationType models.CalculationType `json:"calculationType"`
}

type CreateShortLinkResponse struct {
	Code string `json:"code"`

	// Path is the short path to share, e.g. "/s/2s".
	Path string `json:"path"`
}

type ResolveShortLinkRequest struct {
	Code string `json:"code"`
}

type ResolveShortLinkResponse struct {
	CalculationID   string                 `json:"calculationId"`
	CalculationType models.CalculationType `json:"calculationType"`

	// RedirectPath is the page the short link opens.
	RedirectPath string `json:"redirectPath"`
}
