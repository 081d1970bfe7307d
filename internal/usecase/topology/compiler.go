// Package topology turns declarative agent definitions into executable
// supervisor/worker graphs and caches them per tenant.
package topology

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"overseer-ai/internal/domain"
	"overseer-ai/internal/usecase/orchestrate"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CompilerDeps holds injected dependencies for topology compilation.
type CompilerDeps struct {
	Store        domain.TopologyStore
	Capabilities domain.CapabilityRegistry
	Oracle       domain.DecisionOracle
	Limits       orchestrate.Limits
	JudgeEnabled bool
	// FailurePhrases overrides the default failure classification list.
	FailurePhrases []string
	Logger         *slog.Logger
}

// Compiler validates a tenant's agent definitions and builds the live
// execution graph bottom-up. Compilation has no shared mutable state, so
// concurrent Load calls for the same tenant are safe (and idempotent).
type Compiler struct {
	deps     CompilerDeps
	detector *orchestrate.FailureDetector
	judge    *orchestrate.Judge
}

// NewCompiler creates a compiler.
func NewCompiler(deps CompilerDeps) *Compiler {
	if deps.Logger == nil {
		deps.Logger = discardLogger()
	}
	c := &Compiler{
		deps:     deps,
		detector: orchestrate.NewFailureDetector(deps.FailurePhrases),
	}
	if deps.JudgeEnabled {
		c.judge = orchestrate.NewJudge(deps.Oracle, deps.Logger)
	}
	return c
}

// Load builds the compiled topology for a tenant. Any structural problem
// (no definitions, zero or multiple roots, cycles, dangling parents, unknown
// capability bindings) is a *domain.ConfigError: fatal, nothing is built.
func (c *Compiler) Load(ctx context.Context, tenantID string) (*orchestrate.Topology, error) {
	defs, err := c.deps.Store.ListDefinitions(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list definitions for tenant %q: %w", tenantID, err)
	}

	enabled := make([]domain.AgentDefinition, 0, len(defs))
	for _, d := range defs {
		if d.Enabled {
			enabled = append(enabled, d)
		}
	}
	if len(enabled) == 0 {
		return nil, domain.NewConfigError(tenantID, domain.ErrNoDefinitions, "")
	}

	byName := make(map[string]domain.AgentDefinition, len(enabled))
	for _, d := range enabled {
		if _, exists := byName[d.Name]; exists {
			return nil, domain.NewConfigError(tenantID, domain.ErrDuplicate,
				fmt.Sprintf("agent name %q declared twice", d.Name))
		}
		byName[d.Name] = d
	}

	root, err := findRoot(tenantID, enabled)
	if err != nil {
		return nil, err
	}

	// Parent references must resolve to declared supervisors.
	for _, d := range enabled {
		if d.Parent == "" {
			if d.Kind == domain.KindWorker {
				return nil, domain.NewConfigError(tenantID, domain.ErrDanglingParent,
					fmt.Sprintf("worker %q has no parent supervisor", d.Name))
			}
			continue
		}
		parent, ok := byName[d.Parent]
		if !ok {
			return nil, domain.NewConfigError(tenantID, domain.ErrDanglingParent,
				fmt.Sprintf("agent %q references unknown parent %q", d.Name, d.Parent))
		}
		if parent.Kind != domain.KindSupervisor {
			return nil, domain.NewConfigError(tenantID, domain.ErrDanglingParent,
				fmt.Sprintf("agent %q has non-supervisor parent %q", d.Name, d.Parent))
		}
	}

	if err := rejectCycles(tenantID, byName); err != nil {
		return nil, err
	}

	// Direct children per supervisor, in declared order.
	children := make(map[string][]domain.AgentDefinition)
	for _, d := range enabled {
		if d.Parent != "" {
			children[d.Parent] = append(children[d.Parent], d)
		}
	}

	var names []string
	rootNode, err := c.build(tenantID, root, children, &names)
	if err != nil {
		return nil, err
	}

	c.deps.Logger.Info("topology compiled",
		"tenant", tenantID, "root", root.Name, "nodes", len(names))
	return &orchestrate.Topology{
		TenantID:  tenantID,
		Root:      rootNode.(*orchestrate.Supervisor),
		NodeNames: names,
	}, nil
}

// findRoot locates the single root supervisor.
func findRoot(tenantID string, defs []domain.AgentDefinition) (domain.AgentDefinition, error) {
	var roots []domain.AgentDefinition
	for _, d := range defs {
		if d.IsRoot() {
			roots = append(roots, d)
		}
	}
	switch len(roots) {
	case 0:
		return domain.AgentDefinition{}, domain.NewConfigError(tenantID, domain.ErrNoRootSupervisor, "")
	case 1:
		return roots[0], nil
	default:
		names := make([]string, len(roots))
		for i, r := range roots {
			names[i] = r.Name
		}
		return domain.AgentDefinition{}, domain.NewConfigError(tenantID, domain.ErrMultipleRoots,
			fmt.Sprintf("roots: %v", names))
	}
}

// rejectCycles walks each definition's ancestor chain; revisiting a name
// means the parent relation is cyclic.
func rejectCycles(tenantID string, byName map[string]domain.AgentDefinition) error {
	for name := range byName {
		seen := map[string]bool{name: true}
		current := byName[name]
		for current.Parent != "" {
			if seen[current.Parent] {
				return domain.NewConfigError(tenantID, domain.ErrTopologyCycle,
					fmt.Sprintf("ancestor chain of %q revisits %q", name, current.Parent))
			}
			seen[current.Parent] = true
			current = byName[current.Parent]
		}
	}
	return nil
}

// build compiles one definition into a node, recursing into supervisor
// subtrees. names records every compiled node in preorder.
func (c *Compiler) build(tenantID string, def domain.AgentDefinition, children map[string][]domain.AgentDefinition, names *[]string) (orchestrate.Node, error) {
	*names = append(*names, def.Name)

	if def.Kind == domain.KindWorker {
		capabilities := make([]domain.Capability, 0, len(def.Capabilities))
		for _, capName := range def.Capabilities {
			capability, err := c.deps.Capabilities.Get(capName)
			if err != nil {
				return nil, domain.NewConfigError(tenantID, domain.ErrCapabilityNotFound,
					fmt.Sprintf("worker %q binds unknown capability %q", def.Name, capName))
			}
			capabilities = append(capabilities, capability)
		}
		return orchestrate.NewWorker(def.Name, def.Prompt, capabilities, c.deps.Oracle, c.deps.Logger), nil
	}

	kids := children[def.Name]
	if len(kids) == 0 {
		return nil, domain.NewConfigError(tenantID, domain.ErrEmptySupervisor,
			fmt.Sprintf("supervisor %q", def.Name))
	}

	childNodes := make([]orchestrate.Node, 0, len(kids))
	candidates := make([]domain.Candidate, 0, len(kids))
	for _, kid := range kids {
		node, err := c.build(tenantID, kid, children, names)
		if err != nil {
			return nil, err
		}
		childNodes = append(childNodes, node)
		candidates = append(candidates, domain.Candidate{
			Name:        kid.Name,
			Description: kid.Description(),
		})
	}

	return orchestrate.NewSupervisor(def.Name, def.Prompt, childNodes, candidates, orchestrate.SupervisorDeps{
		Oracle:   c.deps.Oracle,
		Judge:    c.judge,
		Detector: c.detector,
		Limits:   c.deps.Limits,
		Logger:   c.deps.Logger,
	}), nil
}
