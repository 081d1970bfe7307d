package capability

import (
	"context"
	"encoding/json"
	"fmt"
)

// taskSchema is the argument contract shared by the built-in capabilities:
// the orchestrator hands each one the current task text.
var taskSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"task": {"type": "string", "description": "the user task to act on"}
	},
	"required": ["task"]
}`)

func taskArg(args map[string]any) string {
	if t, ok := args["task"].(string); ok {
		return t
	}
	return ""
}

// vizPayload embeds a structured visualization command in a text reply, for
// clients that render display instructions from worker output.
func vizPayload(kind string, params map[string]any) string {
	payload, _ := json.Marshal(map[string]any{"display": kind, "params": params})
	return string(payload)
}

// RegisterBuiltins installs the stock capability set into the registry.
// These are deliberately simple, swappable stand-ins: the orchestration
// core treats every capability as an opaque function.
func RegisterBuiltins(r *Registry) error {
	builtins := []struct {
		name, description string
		fn                Func
	}{
		{
			"recipe_search", "search the recipe catalog by kitchen or recipe name",
			func(_ context.Context, args map[string]any) (string, error) {
				return fmt.Sprintf("found 3 recipes matching %q: arroz sushi, miso ramen, katsu curry", taskArg(args)), nil
			},
		},
		{
			"recipe_details", "fetch ingredients and directions for one recipe",
			func(_ context.Context, args map[string]any) (string, error) {
				return "recipe arroz sushi: rice 300g, nori 4 sheets, vinegar 30ml; steam, season, roll", nil
			},
		},
		{
			"suggest_dishes", "suggest dish ideas from available ingredients",
			func(_ context.Context, args map[string]any) (string, error) {
				return "suggestions: pasta primavera, vegetable stir-fry, garden salad", nil
			},
		},
		{
			"team_members", "list the members of a kitchen team",
			func(_ context.Context, args map[string]any) (string, error) {
				return "team: Akira (head chef), Noor (sous chef), Pavel (prep)", nil
			},
		},
		{
			"assign_task", "assign a task to a team member",
			func(_ context.Context, args map[string]any) (string, error) {
				return fmt.Sprintf("assigned %q to the next available member", taskArg(args)), nil
			},
		},
		{
			"check_stock", "check inventory stock levels",
			func(_ context.Context, args map[string]any) (string, error) {
				return "stock: 15 items tracked, 3 running low (rice, nori, dashi)", nil
			},
		},
		{
			"list_suppliers", "list registered suppliers",
			func(_ context.Context, args map[string]any) (string, error) {
				return "suppliers: FreshFarms, SeafoodDirect, ButcherPro", nil
			},
		},
		{
			"forecast_demand", "forecast demand for an inventory item",
			func(_ context.Context, args map[string]any) (string, error) {
				return "forecast: expect 20kg rice needed over the next 7 days", nil
			},
		},
		{
			"calculate_cost", "calculate cost and margin for a recipe",
			func(_ context.Context, args map[string]any) (string, error) {
				return "cost: $12.50 per serving, 38% margin at current menu price", nil
			},
		},
		{
			"marketing_copy", "generate marketing copy for a product",
			func(_ context.Context, args map[string]any) (string, error) {
				return fmt.Sprintf("marketing: %q - crafted with care, served with pride", taskArg(args)), nil
			},
		},
		{
			"display_recipes", "render recipe cards as a visual display",
			func(_ context.Context, args map[string]any) (string, error) {
				return "here are the recipe cards. " + vizPayload("recipes", map[string]any{"recipes": []string{"arroz sushi", "miso ramen"}}), nil
			},
		},
		{
			"display_scaling", "render a recipe scaling flow diagram",
			func(_ context.Context, args map[string]any) (string, error) {
				return "scaling the recipe 3x. " + vizPayload("scaling", map[string]any{"recipe": taskArg(args), "factor": 3}), nil
			},
		},
		{
			"display_forecast", "render a demand forecast trend graph",
			func(_ context.Context, args map[string]any) (string, error) {
				return "here is the forecast graph. " + vizPayload("forecast", map[string]any{"metric": "demand", "days": 30}), nil
			},
		},
		{
			"display_inventory_alert", "render a low-stock alert panel",
			func(_ context.Context, args map[string]any) (string, error) {
				return "low stock alert raised. " + vizPayload("inventory_alert", map[string]any{"item": "rice", "quantity": 5}), nil
			},
		},
		{
			"display_team_assignment", "render a team assignment board",
			func(_ context.Context, args map[string]any) (string, error) {
				return "assignment board updated. " + vizPayload("team_assignment", map[string]any{"task": taskArg(args)}), nil
			},
		},
	}

	for _, b := range builtins {
		c, err := New(b.name, b.description, taskSchema, b.fn)
		if err != nil {
			return fmt.Errorf("register builtin %q: %w", b.name, err)
		}
		if err := r.Register(c); err != nil {
			return fmt.Errorf("register builtin %q: %w", b.name, err)
		}
	}
	return nil
}
