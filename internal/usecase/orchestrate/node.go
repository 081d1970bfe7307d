package orchestrate

import (
	"context"

	"overseer-ai/internal/domain"
)

// Node is one executable element of a compiled topology. Supervisors and
// workers implement the same interface, so a supervisor's child may be a
// leaf worker or a whole nested subgraph without special-casing.
type Node interface {
	Name() string

	// Step advances the conversation: a worker invokes its capability and
	// appends one labeled message; a supervisor runs its routing loop until
	// a terminal decision and returns the aggregated state. The tracker is
	// shared across the whole walk of one user turn.
	//
	// Step returns an error only for request-level failures (context
	// cancellation); capability failures become labeled failure messages.
	Step(ctx context.Context, conv *domain.Conversation, tracker *Tracker) error
}

// Topology is a tenant's compiled execution graph: a tree of supervisors
// with worker leaves. It is immutable once built and safely shared by
// concurrent requests; rebuilds install a whole new Topology.
type Topology struct {
	TenantID string
	Root     *Supervisor

	// NodeNames lists every compiled node, root first, for introspection.
	NodeNames []string
}
