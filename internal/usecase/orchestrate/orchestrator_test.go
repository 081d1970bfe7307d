package orchestrate

import (
	"context"
	"errors"
	"testing"

	"overseer-ai/internal/domain"
)

type stubSource struct {
	topo *Topology
	err  error
}

func (s *stubSource) GetOrLoad(_ context.Context, _ string, _ bool) (*Topology, error) {
	return s.topo, s.err
}

func TestOrchestratorRun(t *testing.T) {
	oracle := &scriptOracle{routes: []string{"w"}}
	root := newTestSupervisor("root", oracle, []Node{okWorker("w", "answer")}, SupervisorDeps{})
	source := &stubSource{topo: &Topology{TenantID: "t1", Root: root}}
	o := NewOrchestrator(source, discardLogger())

	conv, err := o.Run(context.Background(), "t1", "do the thing")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if conv.TenantID != "t1" {
		t.Errorf("TenantID = %q", conv.TenantID)
	}
	if conv.ID == "" {
		t.Error("Run should assign a turn ID")
	}
	if conv.Next != domain.Terminal {
		t.Errorf("Next = %q, want terminal", conv.Next)
	}
	last, _ := conv.Last()
	if last.Name != "w" || last.Content != "answer" {
		t.Errorf("last message = %+v", last)
	}
}

func TestOrchestratorRunWithoutDelegation(t *testing.T) {
	oracle := &scriptOracle{} // immediate terminal
	root := newTestSupervisor("root", oracle, []Node{okWorker("w", "x")}, SupervisorDeps{})
	source := &stubSource{topo: &Topology{TenantID: "t1", Root: root}}
	o := NewOrchestrator(source, discardLogger())

	conv, err := o.Run(context.Background(), "t1", "hello")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(conv.Messages) != 2 {
		t.Fatalf("messages = %d, want user message plus explanation", len(conv.Messages))
	}
	if conv.Messages[1].Role != domain.RoleSystem {
		t.Errorf("explanation role = %q, want system", conv.Messages[1].Role)
	}
}

func TestOrchestratorRunConfigError(t *testing.T) {
	source := &stubSource{err: domain.NewConfigError("t1", domain.ErrNoRootSupervisor, "")}
	o := NewOrchestrator(source, discardLogger())

	_, err := o.Run(context.Background(), "t1", "hello")
	if err == nil {
		t.Fatal("configuration errors must fail the request")
	}
	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("error should carry tenant context, got %v", err)
	}
}

func TestOrchestratorRunsAreIndependent(t *testing.T) {
	oracle := &scriptOracle{routes: []string{"w"}}
	root := newTestSupervisor("root", oracle, []Node{okWorker("w", "answer")}, SupervisorDeps{})
	source := &stubSource{topo: &Topology{TenantID: "t1", Root: root}}
	o := NewOrchestrator(source, discardLogger())

	first, err := o.Run(context.Background(), "t1", "one")
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := o.Run(context.Background(), "t1", "two")
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if first.ID == second.ID {
		t.Error("each turn should get its own ID")
	}
	if first.Messages[0].Content != "one" || second.Messages[0].Content != "two" {
		t.Error("each turn should start from its own user message")
	}
	if len(first.Messages) != 2 {
		t.Errorf("first turn mutated after second run: %d messages", len(first.Messages))
	}
}
