package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mmynk/nekolators/internal/models"
)

// calculationRow is the calculations table. Participants are kept in a
// JSONB column.
type calculationRow struct {
	ID             string    `gorm:"type:uuid;primaryKey"`
	Title          string    `gorm:"not null;default:''"`
	DiscountValue  string    `gorm:"not null;default:''"`
	DiscountResult float64   `gorm:"not null;default:0"`
	TaxValue       string    `gorm:"not null;default:''"`
	TaxResult      float64   `gorm:"not null;default:0"`
	Persons        string    `gorm:"type:jsonb;not null"`
	OverallTotal   float64   `gorm:"not null;default:0"`
	FinalTotal     float64   `gorm:"not null;default:0"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (calculationRow) TableName() string { return "calculations" }

type expertCalculationRow struct {
	ID            string    `gorm:"type:uuid;primaryKey"`
	Title         string    `gorm:"not null;default:''"`
	Items         string    `gorm:"type:jsonb;not null"`
	Persons       string    `gorm:"type:jsonb;not null"`
	Assignments   string    `gorm:"type:jsonb;not null"`
	DiscountValue string    `gorm:"not null;default:''"`
	TaxValue      string    `gorm:"not null;default:''"`
	Discount      float64   `gorm:"not null;default:0"`
	Tax           float64   `gorm:"not null;default:0"`
	Subtotal      float64   `gorm:"not null;default:0"`
	FinalTotal    float64   `gorm:"not null;default:0"`
	ReceiptData   *string   `gorm:"type:jsonb"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt     time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (expertCalculationRow) TableName() string { return "expert_calculations" }

type shortLinkRow struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	ShortCode       string    `gorm:"not null;uniqueIndex"`
	CalculationType string    `gorm:"not null;uniqueIndex:idx_short_links_calculation"`
	CalculationID   string    `gorm:"not null;uniqueIndex:idx_short_links_calculation"`
	CreatedAt       time.Time `gorm:"not null"`
}

func (shortLinkRow) TableName() string { return "short_links" }

func toCalculationRow(calc *models.Calculation) (*calculationRow, error) {
	persons, err := marshalList(calc.Persons)
	if err != nil {
		return nil, fmt.Errorf("failed to encode persons: %w", err)
	}
	return &calculationRow{
		ID:             calc.ID,
		Title:          calc.Title,
		DiscountValue:  calc.DiscountValue,
		DiscountResult: calc.DiscountResult,
		TaxValue:       calc.TaxValue,
		TaxResult:      calc.TaxResult,
		Persons:        persons,
		OverallTotal:   calc.OverallTotal,
		FinalTotal:     calc.FinalTotal,
		CreatedAt:      time.Unix(calc.CreatedAt, 0).UTC(),
		UpdatedAt:      time.Unix(calc.UpdatedAt, 0).UTC(),
	}, nil
}

func (r *calculationRow) toModel() (*models.Calculation, error) {
	calc := &models.Calculation{
		ID:             r.ID,
		Title:          r.Title,
		DiscountValue:  r.DiscountValue,
		DiscountResult: r.DiscountResult,
		TaxValue:       r.TaxValue,
		TaxResult:      r.TaxResult,
		OverallTotal:   r.OverallTotal,
		FinalTotal:     r.FinalTotal,
		CreatedAt:      r.CreatedAt.Unix(),
		UpdatedAt:      r.UpdatedAt.Unix(),
	}
	if err := json.Unmarshal([]byte(r.Persons), &calc.Persons); err != nil {
		return nil, fmt.Errorf("failed to decode persons: %w", err)
	}
	return calc, nil
}

func toExpertRow(calc *models.ExpertCalculation) (*expertCalculationRow, error) {
	items, err := marshalList(calc.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode items: %w", err)
	}
	persons, err := marshalList(calc.Persons)
	if err != nil {
		return nil, fmt.Errorf("failed to encode persons: %w", err)
	}
	assignments, err := marshalList(calc.Assignments)
	if err != nil {
		return nil, fmt.Errorf("failed to encode assignments: %w", err)
	}
	row := &expertCalculationRow{
		ID:            calc.ID,
		Title:         calc.Title,
		Items:         items,
		Persons:       persons,
		Assignments:   assignments,
		DiscountValue: calc.DiscountValue,
		TaxValue:      calc.TaxValue,
		Discount:      calc.Discount,
		Tax:           calc.Tax,
		Subtotal:      calc.Subtotal,
		FinalTotal:    calc.FinalTotal,
		CreatedAt:     time.Unix(calc.CreatedAt, 0).UTC(),
		UpdatedAt:     time.Unix(calc.UpdatedAt, 0).UTC(),
	}
	if len(calc.ReceiptData) > 0 {
		receipt := string(calc.ReceiptData)
		row.ReceiptData = &receipt
	}
	return row, nil
}

func (r *expertCalculationRow) toModel() (*models.ExpertCalculation, error) {
	calc := &models.ExpertCalculation{
		ID:            r.ID,
		Title:         r.Title,
		DiscountValue: r.DiscountValue,
		TaxValue:      r.TaxValue,
		Discount:      r.Discount,
		Tax:           r.Tax,
		Subtotal:      r.Subtotal,
		FinalTotal:    r.FinalTotal,
		CreatedAt:     r.CreatedAt.Unix(),
		UpdatedAt:     r.UpdatedAt.Unix(),
	}
	if err := json.Unmarshal([]byte(r.Items), &calc.Items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	if err := json.Unmarshal([]byte(r.Persons), &calc.Persons); err != nil {
		return nil, fmt.Errorf("failed to decode persons: %w", err)
	}
	if err := json.Unmarshal([]byte(r.Assignments), &calc.Assignments); err != nil {
		return nil, fmt.Errorf("failed to decode assignments: %w", err)
	}
	if r.ReceiptData != nil {
		calc.ReceiptData = json.RawMessage(*r.ReceiptData)
	}
	return calc, nil
}

func (r *shortLinkRow) toModel() *models.ShortLink {
	return &models.ShortLink{
		Seq:             r.ID,
		Code:            r.ShortCode,
		CalculationType: models.CalculationType(r.CalculationType),
		CalculationID:   r.CalculationID,
		CreatedAt:       r.CreatedAt.Unix(),
	}
}

// marshalList encodes a nil slice as an empty JSON array.
func marshalList[T any](list []T) (string, error) {
	if list == nil {
		list = []T{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
