package capability

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonschema"

	"overseer-ai/internal/domain"
)

// Func is the signature of a capability implementation: structured
// arguments in, a result string out, error on failure.
type Func func(ctx context.Context, args map[string]any) (string, error)

// funcCapability adapts a plain function into a domain.Capability with an
// argument contract. When a schema is declared, arguments are validated
// before the function runs; contract violations come back as error results
// rather than Go errors, so the worker reports them as data.
type funcCapability struct {
	name        string
	description string
	rawSchema   json.RawMessage
	schema      *jsonschema.Schema
	fn          Func
}

// New creates a capability from a function and an optional JSON Schema for
// its arguments. Returns an error if the schema does not compile.
func New(name, description string, schema json.RawMessage, fn Func) (domain.Capability, error) {
	c := &funcCapability{
		name:        name,
		description: description,
		rawSchema:   schema,
		fn:          fn,
	}
	if len(schema) > 0 {
		compiled, err := jsonschema.NewCompiler().Compile(schema)
		if err != nil {
			return nil, fmt.Errorf("compile schema for capability %q: %w", name, err)
		}
		c.schema = compiled
	}
	return c, nil
}

// MustNew is New for statically declared capabilities with known-good schemas.
func MustNew(name, description string, schema json.RawMessage, fn Func) domain.Capability {
	c, err := New(name, description, schema, fn)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *funcCapability) Name() string            { return c.name }
func (c *funcCapability) Description() string     { return c.description }
func (c *funcCapability) Schema() json.RawMessage { return c.rawSchema }

func (c *funcCapability) Invoke(ctx context.Context, args json.RawMessage) (*domain.CapabilityResult, error) {
	var parsed map[string]any
	if len(args) > 0 {
		if err := json.Unmarshal(args, &parsed); err != nil {
			return &domain.CapabilityResult{
				Content: fmt.Sprintf("invalid arguments: %v", err),
				IsError: true,
			}, nil
		}
	}

	if c.schema != nil {
		result := c.schema.Validate(parsed)
		if !result.IsValid() {
			return &domain.CapabilityResult{
				Content: fmt.Sprintf("arguments do not match contract: %s", result.Error()),
				IsError: true,
			}, nil
		}
	}

	out, err := c.fn(ctx, parsed)
	if err != nil {
		return nil, err
	}
	return &domain.CapabilityResult{Content: out}, nil
}
