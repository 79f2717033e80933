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

func TestShortLinks(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()

	basic, err := c.calculation.CreateCalculation(ctx, connect.NewRequest(&rpc.CreateCalculationRequest{
		Persons: []models.Participant{{ID: "a", Price: "10"}},
	}))
	require.NoError(t, err)
	expert, err := c.expert.CreateExpertCalculation(ctx, connect.NewRequest(expertRequest()))
	require.NoError(t, err)

	first, err := c.links.CreateShortLink(ctx, connect.NewRequest(&rpc.CreateShortLinkRequest{
		CalculationID:   basic.Msg.Calculation.ID,
		CalculationType: models.CalculationTypeBasic,
	}))
	require.NoError(t, err)
	assert.Equal(t, "1", first.Msg.Code)
	assert.Equal(t, "/s/1", first.Msg.Path)

	again, err := c.links.CreateShortLink(ctx, connect.NewRequest(&rpc.CreateShortLinkRequest{
		CalculationID:   basic.Msg.Calculation.ID,
		CalculationType: models.CalculationTypeBasic,
	}))
	require.NoError(t, err)
	assert.Equal(t, first.Msg.Code, again.Msg.Code)

	second, err := c.links.CreateShortLink(ctx, connect.NewRequest(&rpc.CreateShortLinkRequest{
		CalculationID:   expert.Msg.Calculation.ID,
		CalculationType: models.CalculationTypeExpert,
	}))
	require.NoError(t, err)
	assert.Equal(t, "2", second.Msg.Code)

	resolved, err := c.links.ResolveShortLink(ctx, connect.NewRequest(&rpc.ResolveShortLinkRequest{Code: "1"}))
	require.NoError(t, err)
	assert.Equal(t, basic.Msg.Calculation.ID, resolved.Msg.CalculationID)
	assert.Equal(t, models.CalculationTypeBasic, resolved.Msg.CalculationType)
	assert.Equal(t, "/"+basic.Msg.Calculation.ID+"/insert", resolved.Msg.RedirectPath)

	resolved, err = c.links.ResolveShortLink(ctx, connect.NewRequest(&rpc.ResolveShortLinkRequest{Code: "2"}))
	require.NoError(t, err)
	assert.Equal(t, "/expert/"+expert.Msg.Calculation.ID+"/edit", resolved.Msg.RedirectPath)
}

func TestShortLinks_Errors(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()

	_, err := c.links.CreateShortLink(ctx, connect.NewRequest(&rpc.CreateShortLinkRequest{
		CalculationID:   "missing",
		CalculationType: models.CalculationTypeExpert,
	}))
	requireCode(t, connect.CodeNotFound, err)

	_, err = c.links.CreateShortLink(ctx, connect.NewRequest(&rpc.CreateShortLinkRequest{
		CalculationID:   "x",
		CalculationType: "weird",
	}))
	requireCode(t, connect.CodeInvalidArgument, err)

	_, err = c.links.ResolveShortLink(ctx, connect.NewRequest(&rpc.ResolveShortLinkRequest{Code: "zz"}))
	requireCode(t, connect.CodeNotFound, err)

	_, err = c.links.ResolveShortLink(ctx, connect.NewRequest(&rpc.ResolveShortLinkRequest{Code: "not-a-code"}))
	requireCode(t, connect.CodeInvalidArgument, err)
}
