package domain

// AgentKind distinguishes the two node kinds in a topology.
type AgentKind string

const (
	KindWorker     AgentKind = "worker"
	KindSupervisor AgentKind = "supervisor"
)

// AgentDefinition is one declared node in a tenant's topology, as stored in
// the topology store. The orchestration core treats it as read-only; edits go
// through the store followed by a cache invalidation.
type AgentDefinition struct {
	ID       string            `json:"id"            yaml:"id"`
	TenantID string            `json:"tenant_id"     yaml:"tenant_id"`
	Name     string            `json:"name"          yaml:"name"`
	Kind     AgentKind         `json:"kind"          yaml:"kind"`
	Prompt   string            `json:"prompt"        yaml:"prompt"`
	Enabled  bool              `json:"enabled"       yaml:"enabled"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// Capabilities lists bound capability names in declared order.
	// Only meaningful for workers.
	Capabilities []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`

	// Parent is the name of the supervising node. Empty only for the
	// tenant's root supervisor.
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`
}

// IsRoot reports whether this definition is a root supervisor.
func (d AgentDefinition) IsRoot() bool {
	return d.Parent == "" && d.Kind == KindSupervisor
}

// Description returns the routing hint for this agent, taken from metadata.
// Falls back to the agent name so candidate lists are never blank.
func (d AgentDefinition) Description() string {
	if desc, ok := d.Metadata["description"]; ok && desc != "" {
		return desc
	}
	return d.Name
}
