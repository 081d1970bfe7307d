package domain

import "context"

// TopologyStore is the declarative source of agent definitions. The core
// never polls; changes are observed through an explicit cache invalidation.
type TopologyStore interface {
	// ListDefinitions returns the enabled definitions for a tenant,
	// supervisors before workers, siblings in declared order.
	ListDefinitions(ctx context.Context, tenantID string) ([]AgentDefinition, error)
}
