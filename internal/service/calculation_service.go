package service

import (
	"context"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mmynk/nekolators/internal/calculator"
	"github.com/mmynk/nekolators/internal/metrics"
	"github.com/mmynk/nekolators/internal/models"
	"github.com/mmynk/nekolators/internal/rpc"
	"github.com/mmynk/nekolators/internal/storage"
)

// CalculationService implements rpc.CalculationServiceHandler for basic
// calculations.
type CalculationService struct {
	store storage.Store
}

var _ rpc.CalculationServiceHandler = (*CalculationService)(nil)

// NewCalculationService creates a new CalculationService with the given storage backend.
func NewCalculationService(store storage.Store) *CalculationService {
	return &CalculationService{store: store}
}

// CreateCalculation resolves and saves a new basic calculation. Every derived
// number is recomputed from the raw expressions.
func (s *CalculationService) CreateCalculation(ctx context.Context, req *connect.Request[rpc.CreateCalculationRequest]) (*connect.Response[rpc.CreateCalculationResponse], error) {
	calc, breakdowns, err := buildCalculation(req.Msg.Title, req.Msg.Persons, req.Msg.DiscountValue, req.Msg.TaxValue)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateCalculation(ctx, calc); err != nil {
		return nil, toConnectError("CreateCalculation", err)
	}
	metrics.CalculationsSaved.WithLabelValues(string(models.CalculationTypeBasic), "create").Inc()

	return connect.NewResponse(&rpc.CreateCalculationResponse{
		Calculation: calc,
		Breakdowns:  breakdowns,
	}), nil
}

// GetCalculation returns a saved calculation and each participant's breakdown.
func (s *CalculationService) GetCalculation(ctx context.Context, req *connect.Request[rpc.GetCalculationRequest]) (*connect.Response[rpc.GetCalculationResponse], error) {
	if req.Msg.ID == "" {
		return nil, invalidArgument("id required")
	}

	calc, err := s.store.GetCalculation(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError("GetCalculation", err, "calculation_id", req.Msg.ID)
	}

	return connect.NewResponse(&rpc.GetCalculationResponse{
		Calculation: calc,
		Breakdowns:  Breakdowns(calc),
	}), nil
}

// UpdateCalculation replaces a saved calculation.
func (s *CalculationService) UpdateCalculation(ctx context.Context, req *connect.Request[rpc.UpdateCalculationRequest]) (*connect.Response[rpc.UpdateCalculationResponse], error) {
	if req.Msg.ID == "" {
		return nil, invalidArgument("id required")
	}

	calc, breakdowns, err := buildCalculation(req.Msg.Title, req.Msg.Persons, req.Msg.DiscountValue, req.Msg.TaxValue)
	if err != nil {
		return nil, err
	}
	calc.ID = req.Msg.ID

	if calc.Title == "" {
		existing, err := s.store.GetCalculation(ctx, calc.ID)
		if err != nil {
			return nil, toConnectError("UpdateCalculation", err, "calculation_id", calc.ID)
		}
		calc.Title = existing.Title
	}

	if err := s.store.UpdateCalculation(ctx, calc); err != nil {
		return nil, toConnectError("UpdateCalculation", err, "calculation_id", calc.ID)
	}
	metrics.CalculationsSaved.WithLabelValues(string(models.CalculationTypeBasic), "update").Inc()

	return connect.NewResponse(&rpc.UpdateCalculationResponse{
		Calculation: calc,
		Breakdowns:  breakdowns,
	}), nil
}

// buildCalculation validates the participants and derives every number of a
// basic calculation from its raw expressions.
func buildCalculation(title string, persons []models.Participant, discountValue, taxValue string) (*models.Calculation, map[string]calculator.Breakdown, error) {
	if len(persons) == 0 {
		return nil, nil, invalidArgument("at least one person is required")
	}

	persons = append([]models.Participant(nil), persons...)
	seen := make(map[string]bool, len(persons))
	for i := range persons {
		if persons[i].ID == "" {
			persons[i].ID = uuid.New().String()
		}
		if seen[persons[i].ID] {
			return nil, nil, invalidArgument("duplicate person id %q", persons[i].ID)
		}
		seen[persons[i].ID] = true
	}

	result := calculator.CalculateFlat(persons, discountValue, taxValue)
	if err := checkFlat(result); err != nil {
		return nil, nil, toConnectError("Calculation", err)
	}

	calc := &models.Calculation{
		Title:          title,
		DiscountValue:  discountValue,
		DiscountResult: result.DiscountResult,
		TaxValue:       taxValue,
		TaxResult:      result.TaxResult,
		Persons:        result.Participants,
		OverallTotal:   result.OverallTotal,
		FinalTotal:     result.FinalTotal,
	}
	return calc, result.Breakdowns, nil
}

// Breakdowns recomputes each participant's breakdown of a saved calculation.
func Breakdowns(calc *models.Calculation) map[string]calculator.Breakdown {
	out := make(map[string]calculator.Breakdown, len(calc.Persons))
	for _, p := range calc.Persons {
		out[p.ID] = calculator.PersonBreakdown(p.TotalPrice, calc.OverallTotal, calc.DiscountResult, calc.TaxResult)
	}
	return out
}
