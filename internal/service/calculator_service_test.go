package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/nekolators/internal/models"
	"github.com/mmynk/nekolators/internal/rpc"
)

func TestCalculateFlat(t *testing.T) {
	c := setupTestServer(t)

	resp, err := c.calculator.CalculateFlat(context.Background(), connect.NewRequest(&rpc.CalculateFlatRequest{
		Persons: []models.Participant{
			{ID: "a", Name: "Alice", Price: "5000+7000"},
			{ID: "b", Name: "Bob", Price: "8000"},
		},
		DiscountValue: "2000",
		TaxValue:      "1000",
	}))
	require.NoError(t, err)

	msg := resp.Msg
	assert.Equal(t, 20000.0, msg.OverallTotal)
	assert.Equal(t, 2000.0, msg.DiscountResult)
	assert.Equal(t, 1000.0, msg.TaxResult)
	assert.InDelta(t, 19000, msg.FinalTotal, 1e-9)

	require.Len(t, msg.Persons, 2)
	assert.Equal(t, 12000.0, msg.Persons[0].TotalPrice)
	assert.InDelta(t, 11400, msg.Persons[0].TotalToPay, 1e-9)
	assert.InDelta(t, 7600, msg.Persons[1].TotalToPay, 1e-9)

	assert.InDelta(t, 0.6, msg.Breakdowns["a"].PercentageOfTotal, 1e-9)
	assert.InDelta(t, 1200, msg.Breakdowns["a"].DiscountAmount, 1e-9)
	assert.InDelta(t, 400, msg.Breakdowns["b"].TaxAmount, 1e-9)
}

func TestCalculateFlat_ZeroTotal(t *testing.T) {
	c := setupTestServer(t)

	resp, err := c.calculator.CalculateFlat(context.Background(), connect.NewRequest(&rpc.CalculateFlatRequest{
		Persons:       []models.Participant{{ID: "a", Price: ""}, {ID: "b", Price: "abc"}},
		DiscountValue: "500",
	}))
	require.NoError(t, err)

	assert.Zero(t, resp.Msg.OverallTotal)
	assert.Zero(t, resp.Msg.FinalTotal)
	assert.Zero(t, resp.Msg.Breakdowns["a"].DiscountAmount)
}

func TestCalculateFlat_NonFinite(t *testing.T) {
	c := setupTestServer(t)

	_, err := c.calculator.CalculateFlat(context.Background(), connect.NewRequest(&rpc.CalculateFlatRequest{
		Persons: []models.Participant{{ID: "a", Price: "Infinity"}},
	}))
	requireCode(t, connect.CodeInvalidArgument, err)
}

func TestCalculateExpert(t *testing.T) {
	c := setupTestServer(t)

	resp, err := c.calculator.CalculateExpert(context.Background(), connect.NewRequest(&rpc.CalculateExpertRequest{
		Items: []models.Item{
			{ID: "i1", Name: "Pizza", Price: 200},
			{ID: "i2", Name: "Tea", Price: 100},
			{ID: "i3", Name: "Bread", Price: 60},
		},
		Persons: []models.Person{{ID: "p1"}, {ID: "p2"}},
		Assignments: []models.Assignment{
			{ItemID: "i1", PersonID: "p1"},
			{ItemID: "i1", PersonID: "p2"},
			{ItemID: "i2", PersonID: "p2"},
		},
		DiscountValue: "20+16",
		Tax:           18,
	}))
	require.NoError(t, err)

	msg := resp.Msg
	assert.Equal(t, 36.0, msg.Discount)
	assert.Equal(t, 18.0, msg.Tax)
	assert.Equal(t, 360.0, msg.Totals.Subtotal)
	assert.Equal(t, 342.0, msg.Totals.FinalTotal)
	assert.Equal(t, 100.0, msg.Totals.PersonItemTotals["p1"])
	assert.Equal(t, 200.0, msg.Totals.PersonItemTotals["p2"])
	assert.InDelta(t, 95, msg.Totals.PersonTotals["p1"], 1e-9)
	assert.InDelta(t, 190, msg.Totals.PersonTotals["p2"], 1e-9)

	require.Len(t, msg.UnassignedItems, 1)
	assert.Equal(t, "i3", msg.UnassignedItems[0].ID)
}

func TestResolveAdjustment(t *testing.T) {
	assert.Equal(t, 30.0, resolveAdjustment("10+20", 5))
	assert.Equal(t, 5.0, resolveAdjustment("", 5))
	assert.Zero(t, resolveAdjustment("abc", 5))
}
