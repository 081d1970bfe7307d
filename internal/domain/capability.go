package domain

import (
	"context"
	"encoding/json"
)

// CapabilityResult is the outcome of invoking a capability.
type CapabilityResult struct {
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// Capability is a pure, side-effect-isolated function a worker exposes to the
// orchestrator. Arguments arrive as JSON matching the declared schema.
type Capability interface {
	Name() string
	Description() string
	// Schema returns the JSON Schema for the capability's arguments.
	// May be nil when the capability accepts anything.
	Schema() json.RawMessage
	Invoke(ctx context.Context, args json.RawMessage) (*CapabilityResult, error)
}

// CapabilityRegistry abstracts capability lookup for the topology compiler.
type CapabilityRegistry interface {
	Get(name string) (Capability, error)
	Names() []string
}
