package topostore

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"overseer-ai/internal/domain"
)

// yamlFile is the on-disk shape of a topology-as-code file: a flat agent
// list per tenant, parent references forming the tree.
type yamlFile struct {
	Tenants map[string]struct {
		Agents []yamlAgent `yaml:"agents"`
	} `yaml:"tenants"`
}

type yamlAgent struct {
	ID           string            `yaml:"id,omitempty"`
	Name         string            `yaml:"name"`
	Kind         string            `yaml:"kind"`
	Prompt       string            `yaml:"prompt,omitempty"`
	Disabled     bool              `yaml:"disabled,omitempty"`
	Metadata     map[string]string `yaml:"metadata,omitempty"`
	Capabilities []string          `yaml:"capabilities,omitempty"`
	Parent       string            `yaml:"parent,omitempty"`
}

// YAMLStore implements domain.TopologyStore from a single YAML file.
// Reload re-reads the file; pair it with a cache invalidation to roll out
// edits.
type YAMLStore struct {
	path string

	mu      sync.RWMutex
	tenants map[string][]domain.AgentDefinition
}

var _ domain.TopologyStore = (*YAMLStore)(nil)

// NewYAMLStore loads the topology file at path.
func NewYAMLStore(path string) (*YAMLStore, error) {
	s := &YAMLStore{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-parses the topology file, replacing all tenants atomically.
func (s *YAMLStore) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read topology file: %w", err)
	}

	var file yamlFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse topology file %s: %w", s.path, err)
	}

	tenants := make(map[string][]domain.AgentDefinition, len(file.Tenants))
	for tenantID, t := range file.Tenants {
		defs := make([]domain.AgentDefinition, 0, len(t.Agents))
		for _, a := range t.Agents {
			defs = append(defs, domain.AgentDefinition{
				ID:           a.ID,
				TenantID:     tenantID,
				Name:         a.Name,
				Kind:         domain.AgentKind(a.Kind),
				Prompt:       a.Prompt,
				Enabled:      !a.Disabled,
				Metadata:     a.Metadata,
				Capabilities: a.Capabilities,
				Parent:       a.Parent,
			})
		}
		// Supervisors before workers, file order otherwise.
		sort.SliceStable(defs, func(i, j int) bool {
			return kindRank(defs[i].Kind) < kindRank(defs[j].Kind)
		})
		tenants[tenantID] = defs
	}

	s.mu.Lock()
	s.tenants = tenants
	s.mu.Unlock()
	return nil
}

// ListDefinitions implements domain.TopologyStore.
func (s *YAMLStore) ListDefinitions(_ context.Context, tenantID string) ([]domain.AgentDefinition, error) {
	s.mu.RLock()
	defs := s.tenants[tenantID]
	s.mu.RUnlock()

	out := make([]domain.AgentDefinition, 0, len(defs))
	for _, d := range defs {
		if d.Enabled {
			out = append(out, d)
		}
	}
	return out, nil
}

func kindRank(k domain.AgentKind) int {
	if k == domain.KindSupervisor {
		return 0
	}
	return 1
}
