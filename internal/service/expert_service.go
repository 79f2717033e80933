package service

import (
	"context"
	"encoding/json"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mmynk/nekolators/internal/calculator"
	"github.com/mmynk/nekolators/internal/metrics"
	"github.com/mmynk/nekolators/internal/models"
	"github.com/mmynk/nekolators/internal/rpc"
	"github.com/mmynk/nekolators/internal/storage"
)

// ExpertCalculationService implements rpc.ExpertCalculationServiceHandler
// for itemized calculations.
type ExpertCalculationService struct {
	store storage.Store
}

var _ rpc.ExpertCalculationServiceHandler = (*ExpertCalculationService)(nil)

// NewExpertCalculationService creates an ExpertCalculationService.
func NewExpertCalculationService(store storage.Store) *ExpertCalculationService {
	return &ExpertCalculationService{store: store}
}

// expertInput is the editable part of an expert calculation, shared by the
// create and update requests.
type expertInput struct {
	Title         string
	Items         []models.Item
	Persons       []models.Person
	Assignments   []models.Assignment
	DiscountValue string
	TaxValue      string
	Discount      float64
	Tax           float64
	ReceiptData   json.RawMessage
}

// CreateExpertCalculation validates and saves a new expert calculation.
func (s *ExpertCalculationService) CreateExpertCalculation(ctx context.Context, req *connect.Request[rpc.CreateExpertCalculationRequest]) (*connect.Response[rpc.CreateExpertCalculationResponse], error) {
	m := req.Msg
	calc, totals, err := buildExpertCalculation(expertInput{
		Title: m.Title, Items: m.Items, Persons: m.Persons, Assignments: m.Assignments,
		DiscountValue: m.DiscountValue, TaxValue: m.TaxValue, Discount: m.Discount, Tax: m.Tax,
		ReceiptData: m.ReceiptData,
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateExpertCalculation(ctx, calc); err != nil {
		return nil, toConnectError("CreateExpertCalculation", err)
	}
	metrics.CalculationsSaved.WithLabelValues(string(models.CalculationTypeExpert), "create").Inc()

	return connect.NewResponse(&rpc.CreateExpertCalculationResponse{Calculation: calc, Totals: totals}), nil
}

// GetExpertCalculation returns a saved expert calculation with its totals.
func (s *ExpertCalculationService) GetExpertCalculation(ctx context.Context, req *connect.Request[rpc.GetExpertCalculationRequest]) (*connect.Response[rpc.GetExpertCalculationResponse], error) {
	if req.Msg.ID == "" {
		return nil, invalidArgument("id required")
	}

	calc, err := s.store.GetExpertCalculation(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError("GetExpertCalculation", err, "calculation_id", req.Msg.ID)
	}

	return connect.NewResponse(&rpc.GetExpertCalculationResponse{
		Calculation: calc,
		Totals:      ExpertTotals(calc),
	}), nil
}

// UpdateExpertCalculation replaces a saved expert calculation. An update
// without receipt data keeps the receipt the calculation was created from.
func (s *ExpertCalculationService) UpdateExpertCalculation(ctx context.Context, req *connect.Request[rpc.UpdateExpertCalculationRequest]) (*connect.Response[rpc.UpdateExpertCalculationResponse], error) {
	m := req.Msg
	if m.ID == "" {
		return nil, invalidArgument("id required")
	}

	calc, totals, err := buildExpertCalculation(expertInput{
		Title: m.Title, Items: m.Items, Persons: m.Persons, Assignments: m.Assignments,
		DiscountValue: m.DiscountValue, TaxValue: m.TaxValue, Discount: m.Discount, Tax: m.Tax,
		ReceiptData: m.ReceiptData,
	})
	if err != nil {
		return nil, err
	}
	calc.ID = m.ID

	if calc.Title == "" || len(calc.ReceiptData) == 0 {
		existing, err := s.store.GetExpertCalculation(ctx, calc.ID)
		if err != nil {
			return nil, toConnectError("UpdateExpertCalculation", err, "calculation_id", calc.ID)
		}
		if calc.Title == "" {
			calc.Title = existing.Title
		}
		if len(calc.ReceiptData) == 0 {
			calc.ReceiptData = existing.ReceiptData
		}
	}

	if err := s.store.UpdateExpertCalculation(ctx, calc); err != nil {
		return nil, toConnectError("UpdateExpertCalculation", err, "calculation_id", calc.ID)
	}
	metrics.CalculationsSaved.WithLabelValues(string(models.CalculationTypeExpert), "update").Inc()

	return connect.NewResponse(&rpc.UpdateExpertCalculationResponse{Calculation: calc, Totals: totals}), nil
}

// buildExpertCalculation validates the input and fills in the derived fields.
// Discount and tax come from their expressions when present. Subtotal and
// final total are always recomputed from the items.
func buildExpertCalculation(in expertInput) (*models.ExpertCalculation, calculator.Totals, error) {
	items := append([]models.Item{}, in.Items...)
	itemIDs := make(map[string]bool, len(items))
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.New().String()
		}
		if itemIDs[items[i].ID] {
			return nil, calculator.Totals{}, invalidArgument("duplicate item id %q", items[i].ID)
		}
		itemIDs[items[i].ID] = true

		if items[i].Category == "" {
			items[i].Category = models.CategoryFood
		}
		if !items[i].Category.Valid() {
			return nil, calculator.Totals{}, invalidArgument("item %q has unknown category %q", items[i].ID, items[i].Category)
		}
	}

	persons := append([]models.Person{}, in.Persons...)
	personIDs := make(map[string]bool, len(persons))
	for i := range persons {
		if persons[i].ID == "" {
			persons[i].ID = uuid.New().String()
		}
		if personIDs[persons[i].ID] {
			return nil, calculator.Totals{}, invalidArgument("duplicate person id %q", persons[i].ID)
		}
		personIDs[persons[i].ID] = true

		if persons[i].Color == "" {
			persons[i].Color = models.ColorFor(i)
		}
	}

	assignments := append([]models.Assignment{}, in.Assignments...)
	for _, a := range assignments {
		if !itemIDs[a.ItemID] {
			return nil, calculator.Totals{}, invalidArgument("assignment references unknown item %q", a.ItemID)
		}
	}

	if len(in.ReceiptData) > 0 && !json.Valid(in.ReceiptData) {
		return nil, calculator.Totals{}, invalidArgument("receiptData is not valid JSON")
	}

	discount := resolveAdjustment(in.DiscountValue, in.Discount)
	tax := resolveAdjustment(in.TaxValue, in.Tax)
	totals := calculator.ItemAssignmentTotals(items, persons, assignments, discount, tax)
	if err := checkTotals(totals, discount, tax); err != nil {
		return nil, calculator.Totals{}, toConnectError("ExpertCalculation", err)
	}

	return &models.ExpertCalculation{
		Title:         in.Title,
		Items:         items,
		Persons:       persons,
		Assignments:   assignments,
		DiscountValue: in.DiscountValue,
		TaxValue:      in.TaxValue,
		Discount:      discount,
		Tax:           tax,
		Subtotal:      totals.Subtotal,
		FinalTotal:    totals.FinalTotal,
		ReceiptData:   in.ReceiptData,
	}, totals, nil
}

// ExpertTotals recomputes the per-person totals of a saved calculation from
// its stored discount and tax.
func ExpertTotals(calc *models.ExpertCalculation) calculator.Totals {
	return calculator.ItemAssignmentTotals(calc.Items, calc.Persons, calc.Assignments, calc.Discount, calc.Tax)
}
