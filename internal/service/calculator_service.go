// Package service implements the Connect services on top of the calculator
// core and the storage layer.
package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/nekolators/internal/calculator"
	"github.com/mmynk/nekolators/internal/models"
	"github.com/mmynk/nekolators/internal/rpc"
)

// CalculatorService implements rpc.CalculatorServiceHandler. It holds no
// state and persists nothing.
type CalculatorService struct{}

var _ rpc.CalculatorServiceHandler = (*CalculatorService)(nil)

// NewCalculatorService creates a CalculatorService.
func NewCalculatorService() *CalculatorService {
	return &CalculatorService{}
}

// CalculateFlat resolves every price expression and splits discount and tax
// in proportion to each participant's total.
func (s *CalculatorService) CalculateFlat(ctx context.Context, req *connect.Request[rpc.CalculateFlatRequest]) (*connect.Response[rpc.CalculateFlatResponse], error) {
	result := calculator.CalculateFlat(req.Msg.Persons, req.Msg.DiscountValue, req.Msg.TaxValue)
	if err := checkFlat(result); err != nil {
		return nil, toConnectError("CalculateFlat", err)
	}

	slog.Debug("Flat calculation",
		"persons", len(result.Participants),
		"overall_total", result.OverallTotal,
		"final_total", result.FinalTotal,
	)

	return connect.NewResponse(&rpc.CalculateFlatResponse{
		Persons:        result.Participants,
		Breakdowns:     result.Breakdowns,
		DiscountResult: result.DiscountResult,
		TaxResult:      result.TaxResult,
		OverallTotal:   result.OverallTotal,
		FinalTotal:     result.FinalTotal,
	}), nil
}

// CalculateExpert splits each item among its assignees and then discount and
// tax in proportion to each person's share of the subtotal.
func (s *CalculatorService) CalculateExpert(ctx context.Context, req *connect.Request[rpc.CalculateExpertRequest]) (*connect.Response[rpc.CalculateExpertResponse], error) {
	msg := req.Msg
	discount := resolveAdjustment(msg.DiscountValue, msg.Discount)
	tax := resolveAdjustment(msg.TaxValue, msg.Tax)

	totals := calculator.ItemAssignmentTotals(msg.Items, msg.Persons, msg.Assignments, discount, tax)
	if err := checkTotals(totals, discount, tax); err != nil {
		return nil, toConnectError("CalculateExpert", err)
	}

	unassigned := calculator.UnassignedItems(msg.Items, msg.Assignments)
	if unassigned == nil {
		unassigned = []models.Item{}
	}
	return connect.NewResponse(&rpc.CalculateExpertResponse{
		Totals:          totals,
		Discount:        discount,
		Tax:             tax,
		UnassignedItems: unassigned,
	}), nil
}

// resolveAdjustment prefers the typed expression over the plain number.
func resolveAdjustment(expression string, value float64) float64 {
	if expression != "" {
		return calculator.ParseAdditionExpression(expression)
	}
	return value
}

func checkFlat(r calculator.FlatResult) error {
	if !finite(r.DiscountResult, r.TaxResult, r.OverallTotal, r.FinalTotal) {
		return ErrNonFinite
	}
	for _, p := range r.Participants {
		if !finite(p.TotalPrice, p.TotalToPay) {
			return ErrNonFinite
		}
	}
	return nil
}

func checkTotals(t calculator.Totals, discount, tax float64) error {
	if !finite(discount, tax, t.Subtotal, t.FinalTotal) {
		return ErrNonFinite
	}
	for _, v := range t.PersonTotals {
		if !finite(v) {
			return ErrNonFinite
		}
	}
	for _, v := range t.PersonItemTotals {
		if !finite(v) {
			return ErrNonFinite
		}
	}
	return nil
}
