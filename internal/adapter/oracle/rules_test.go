package oracle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overseer-ai/internal/domain"
)

func routeReq(task string, candidates ...string) domain.RouteRequest {
	req := domain.RouteRequest{
		Supervisor: "root",
		Messages:   []domain.Message{{Role: domain.RoleUser, Content: task}},
	}
	for _, c := range candidates {
		req.Candidates = append(req.Candidates, domain.Candidate{Name: c, Description: c})
	}
	return req
}

func TestRulesOracleRoutesByKeyword(t *testing.T) {
	o := NewRulesOracle([]Rule{
		{Contains: "recipe", Target: "kitchen"},
		{Contains: "stock", Target: "inventory"},
	}, nil)

	next, err := o.Route(context.Background(), routeReq("find a RECIPE for ramen", "kitchen", "inventory"))
	require.NoError(t, err)
	assert.Equal(t, "kitchen", next)
}

func TestRulesOracleFirstHitWins(t *testing.T) {
	o := NewRulesOracle([]Rule{
		{Contains: "ramen", Target: "kitchen"},
		{Contains: "ramen", Target: "inventory"},
	}, nil)

	next, err := o.Route(context.Background(), routeReq("ramen please", "kitchen", "inventory"))
	require.NoError(t, err)
	assert.Equal(t, "kitchen", next)
}

func TestRulesOracleIgnoresUnofferedTarget(t *testing.T) {
	o := NewRulesOracle([]Rule{
		{Contains: "ramen", Target: "kitchen"},
		{Contains: "ramen", Target: "inventory"},
	}, nil)

	// kitchen is not a candidate here, so the second rule applies.
	next, err := o.Route(context.Background(), routeReq("ramen please", "inventory"))
	require.NoError(t, err)
	assert.Equal(t, "inventory", next)
}

func TestRulesOracleNoMatchTerminates(t *testing.T) {
	o := NewRulesOracle([]Rule{{Contains: "recipe", Target: "kitchen"}}, nil)

	next, err := o.Route(context.Background(), routeReq("what time is it", "kitchen"))
	require.NoError(t, err)
	assert.Equal(t, domain.Terminal, next)
}

func TestRulesOracleTerminatesAfterAnswer(t *testing.T) {
	o := NewRulesOracle([]Rule{{Contains: "recipe", Target: "kitchen"}}, nil)

	req := routeReq("find a recipe", "kitchen")
	req.Messages = append(req.Messages, domain.Message{
		Role: domain.RoleAssistant, Name: "kitchen", Content: "found 3 recipes",
	})

	next, err := o.Route(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.Terminal, next)
}

func TestRulesOracleKeepsRoutingAfterFailure(t *testing.T) {
	o := NewRulesOracle([]Rule{{Contains: "recipe", Target: "backup"}}, nil)

	req := routeReq("find a recipe", "backup")
	req.Messages = append(req.Messages, domain.Message{
		Role: domain.RoleAssistant, Name: "kitchen", Content: "cannot reach the catalog", IsFailure: true,
	})

	next, err := o.Route(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "backup", next)
}

func TestRulesOracleJudgeAccepts(t *testing.T) {
	o := NewRulesOracle(nil, nil)
	verdict, err := o.Judge(context.Background(), domain.JudgeRequest{Task: "t", Worker: "w", Output: "o"})
	require.NoError(t, err)
	assert.True(t, verdict.Sufficient)
}
