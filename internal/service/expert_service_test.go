package service

import (
	"context"
	"encoding/json"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/nekolators/internal/models"
	"github.com/mmynk/nekolators/internal/rpc"
)

func expertRequest() *rpc.CreateExpertCalculationRequest {
	return &rpc.CreateExpertCalculationRequest{
		Items: []models.Item{
			{ID: "i1", Name: "Nasi Goreng", Price: 200, Category: models.CategoryFood},
			{ID: "i2", Name: "Es Teh", Price: 100},
		},
		Persons: []models.Person{
			{ID: "p1", Name: "Alice"},
			{ID: "p2", Name: "Bob", Color: "#000000"},
		},
		Assignments: []models.Assignment{
			{ItemID: "i1", PersonID: "p1"},
			{ItemID: "i2", PersonID: "p2"},
		},
		DiscountValue: "30",
		TaxValue:      "15",
		ReceiptData:   json.RawMessage(`{"transaction_id":"TXN-1"}`),
	}
}

func TestExpertCalculationLifecycle(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()

	created, err := c.expert.CreateExpertCalculation(ctx, connect.NewRequest(expertRequest()))
	require.NoError(t, err)

	calc := created.Msg.Calculation
	require.NotEmpty(t, calc.ID)
	assert.Equal(t, "Split with Alice, Bob", calc.Title)
	assert.Equal(t, models.CategoryFood, calc.Items[1].Category)
	assert.Equal(t, "#8B5CF6", calc.Persons[0].Color)
	assert.Equal(t, "#000000", calc.Persons[1].Color)
	assert.Equal(t, 30.0, calc.Discount)
	assert.Equal(t, 15.0, calc.Tax)
	assert.Equal(t, 300.0, calc.Subtotal)
	assert.Equal(t, 285.0, calc.FinalTotal)
	assert.InDelta(t, 190, created.Msg.Totals.PersonTotals["p1"], 1e-9)
	assert.InDelta(t, 95, created.Msg.Totals.PersonTotals["p2"], 1e-9)

	got, err := c.expert.GetExpertCalculation(ctx, connect.NewRequest(&rpc.GetExpertCalculationRequest{ID: calc.ID}))
	require.NoError(t, err)
	assert.Equal(t, calc.Items, got.Msg.Calculation.Items)
	assert.Equal(t, calc.Assignments, got.Msg.Calculation.Assignments)
	assert.JSONEq(t, `{"transaction_id":"TXN-1"}`, string(got.Msg.Calculation.ReceiptData))
	assert.Equal(t, created.Msg.Totals.PersonTotals, got.Msg.Totals.PersonTotals)

	// Share the first item and drop the expressions in favor of plain numbers.
	update := &rpc.UpdateExpertCalculationRequest{
		ID:      calc.ID,
		Items:   calc.Items,
		Persons: calc.Persons,
		Assignments: []models.Assignment{
			{ItemID: "i1", PersonID: "p1"},
			{ItemID: "i1", PersonID: "p2"},
			{ItemID: "i2", PersonID: "p2"},
		},
		Discount: 0,
		Tax:      30,
	}
	updated, err := c.expert.UpdateExpertCalculation(ctx, connect.NewRequest(update))
	require.NoError(t, err)
	assert.Equal(t, calc.Title, updated.Msg.Calculation.Title)
	assert.Equal(t, 330.0, updated.Msg.Calculation.FinalTotal)
	assert.InDelta(t, 110, updated.Msg.Totals.PersonTotals["p1"], 1e-9)
	assert.InDelta(t, 220, updated.Msg.Totals.PersonTotals["p2"], 1e-9)

	got, err = c.expert.GetExpertCalculation(ctx, connect.NewRequest(&rpc.GetExpertCalculationRequest{ID: calc.ID}))
	require.NoError(t, err)
	assert.Len(t, got.Msg.Calculation.Assignments, 3)
	assert.JSONEq(t, `{"transaction_id":"TXN-1"}`, string(got.Msg.Calculation.ReceiptData))
	assert.Equal(t, calc.CreatedAt, got.Msg.Calculation.CreatedAt)
}

func TestCreateExpertCalculation_Validation(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(r *rpc.CreateExpertCalculationRequest)
	}{
		{
			name: "unknown item in assignment",
			mutate: func(r *rpc.CreateExpertCalculationRequest) {
				r.Assignments = append(r.Assignments, models.Assignment{ItemID: "nope", PersonID: "p1"})
			},
		},
		{
			name:   "duplicate item id",
			mutate: func(r *rpc.CreateExpertCalculationRequest) { r.Items[1].ID = "i1" },
		},
		{
			name:   "duplicate person id",
			mutate: func(r *rpc.CreateExpertCalculationRequest) { r.Persons[1].ID = "p1" },
		},
		{
			name:   "unknown category",
			mutate: func(r *rpc.CreateExpertCalculationRequest) { r.Items[0].Category = "dessert" },
		},
		{
			name:   "non-finite tax",
			mutate: func(r *rpc.CreateExpertCalculationRequest) { r.TaxValue = "-Infinity" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := expertRequest()
			tt.mutate(req)
			_, err := c.expert.CreateExpertCalculation(ctx, connect.NewRequest(req))
			requireCode(t, connect.CodeInvalidArgument, err)
		})
	}
}

func TestBuildExpertCalculation_InvalidReceiptData(t *testing.T) {
	req := expertRequest()
	_, _, err := buildExpertCalculation(expertInput{
		Items:       req.Items,
		Persons:     req.Persons,
		Assignments: req.Assignments,
		ReceiptData: json.RawMessage(`{"a":`),
	})
	requireCode(t, connect.CodeInvalidArgument, err)

	calc, _, err := buildExpertCalculation(expertInput{
		Items:       req.Items,
		Persons:     req.Persons,
		ReceiptData: json.RawMessage(`{"a":1}`),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(calc.ReceiptData))
}

func TestExpertCalculation_NotFound(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()

	_, err := c.expert.GetExpertCalculation(ctx, connect.NewRequest(&rpc.GetExpertCalculationRequest{ID: "missing"}))
	requireCode(t, connect.CodeNotFound, err)

	_, err = c.expert.UpdateExpertCalculation(ctx, connect.NewRequest(&rpc.UpdateExpertCalculationRequest{ID: "missing"}))
	requireCode(t, connect.CodeNotFound, err)
}
