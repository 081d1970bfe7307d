package orchestrate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"overseer-ai/internal/domain"
	"overseer-ai/internal/infra/tracer"
)

// Worker is a leaf node wrapping the capabilities bound to one agent
// definition. It never propagates a capability failure: errors become
// labeled failure messages so the parent supervisor can observe them and
// the request keeps running.
type Worker struct {
	name         string
	prompt       string
	capabilities []domain.Capability
	oracle       domain.DecisionOracle
	logger       *slog.Logger
}

// NewWorker creates a worker node. The oracle is only consulted when more
// than one capability is bound, to pick the one matching the task.
func NewWorker(name, prompt string, capabilities []domain.Capability, oracle domain.DecisionOracle, logger *slog.Logger) *Worker {
	return &Worker{
		name:         name,
		prompt:       prompt,
		capabilities: capabilities,
		oracle:       oracle,
		logger:       logger,
	}
}

// Name implements Node.
func (w *Worker) Name() string { return w.name }

// Step implements Node: invoke one bound capability with arguments derived
// from the conversation, append the result as a message labeled with this
// worker's name, and return control to the parent supervisor.
func (w *Worker) Step(ctx context.Context, conv *domain.Conversation, _ *Tracker) error {
	ctx, span := tracer.StartSpan(ctx, "worker.step",
		trace.WithAttributes(tracer.StringAttr("node.name", w.name)),
	)
	defer span.End()

	capability := w.pick(ctx, conv)
	if capability == nil {
		conv.Append(domain.Message{
			Role:      domain.RoleAssistant,
			Name:      w.name,
			Content:   fmt.Sprintf("worker %q has no capability bound for this task", w.name),
			IsFailure: true,
		})
		return ctx.Err()
	}

	args, err := json.Marshal(map[string]string{"task": conv.Task()})
	if err != nil {
		args = []byte(`{}`)
	}

	result := w.invoke(ctx, capability, args)
	if result.IsError {
		tracer.RecordError(span, fmt.Errorf("capability %q: %s", capability.Name(), result.Content))
		w.logger.Warn("capability failed",
			"worker", w.name, "capability", capability.Name(), "detail", result.Content)
	} else {
		tracer.SetOK(span)
	}

	conv.Append(domain.Message{
		Role:      domain.RoleAssistant,
		Name:      w.name,
		Content:   result.Content,
		IsFailure: result.IsError,
	})
	return ctx.Err()
}

// pick selects which bound capability handles the current task. With a
// single capability there is nothing to decide; with several, the oracle
// picks among them the same way a supervisor picks among children. Any
// oracle trouble falls back to the first capability in declared order.
func (w *Worker) pick(ctx context.Context, conv *domain.Conversation) domain.Capability {
	switch len(w.capabilities) {
	case 0:
		return nil
	case 1:
		return w.capabilities[0]
	}

	candidates := make([]domain.Candidate, len(w.capabilities))
	byName := make(map[string]domain.Capability, len(w.capabilities))
	for i, c := range w.capabilities {
		candidates[i] = domain.Candidate{Name: c.Name(), Description: c.Description()}
		byName[c.Name()] = c
	}

	chosen, err := w.oracle.Route(ctx, domain.RouteRequest{
		Supervisor: w.name,
		Prompt:     w.prompt,
		Messages:   conv.Messages,
		Candidates: candidates,
	})
	if err != nil || chosen == domain.Terminal {
		return w.capabilities[0]
	}
	if c, ok := byName[chosen]; ok {
		return c
	}
	return w.capabilities[0]
}

// invoke runs a capability, converting errors and panics into failure
// results instead of letting them escape the worker.
func (w *Worker) invoke(ctx context.Context, capability domain.Capability, args json.RawMessage) (result *domain.CapabilityResult) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("capability panicked",
				"worker", w.name, "capability", capability.Name(), "panic", r)
			result = &domain.CapabilityResult{
				Content: fmt.Sprintf("capability %q failed: %v", capability.Name(), r),
				IsError: true,
			}
		}
	}()

	out, err := capability.Invoke(ctx, args)
	if err != nil {
		return &domain.CapabilityResult{
			Content: fmt.Sprintf("capability %q failed: %v", capability.Name(), err),
			IsError: true,
		}
	}
	if out == nil {
		return &domain.CapabilityResult{
			Content: fmt.Sprintf("capability %q returned no result", capability.Name()),
			IsError: true,
		}
	}
	return out
}
