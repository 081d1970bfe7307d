// Package capability provides the capability registry and the built-in
// capability set workers can bind to.
package capability

import (
	"log/slog"
	"sort"
	"sync"

	"overseer-ai/internal/domain"
)

// Registry holds named capabilities. Safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	capabilities map[string]domain.Capability
	logger       *slog.Logger
}

var _ domain.CapabilityRegistry = (*Registry)(nil)

// NewRegistry creates an empty capability registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		capabilities: make(map[string]domain.Capability),
		logger:       logger,
	}
}

// Register adds a capability. Returns domain.ErrDuplicate if the name is
// already taken.
func (r *Registry) Register(c domain.Capability) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.capabilities[name]; exists {
		return domain.ErrDuplicate
	}
	r.capabilities[name] = c
	if r.logger != nil {
		r.logger.Debug("capability registered", "capability", name)
	}
	return nil
}

// Get retrieves a capability by name, or domain.ErrNotFound.
func (r *Registry) Get(name string) (domain.Capability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.capabilities[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

// Names returns all registered capability names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.capabilities))
	for name := range r.capabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
