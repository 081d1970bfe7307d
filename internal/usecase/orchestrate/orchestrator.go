package orchestrate

import (
	"context"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"

	"overseer-ai/internal/domain"
	"overseer-ai/internal/infra/tracer"
)

// TopologySource yields compiled topologies per tenant. Implemented by the
// topology cache.
type TopologySource interface {
	GetOrLoad(ctx context.Context, tenantID string, forceReload bool) (*Topology, error)
}

// Orchestrator is the request entry point: it resolves the tenant's
// compiled topology and runs one user turn through the root supervisor.
type Orchestrator struct {
	source TopologySource
	logger *slog.Logger
}

// NewOrchestrator creates an orchestrator over the given topology source.
func NewOrchestrator(source TopologySource, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = discardLogger()
	}
	return &Orchestrator{source: source, logger: logger}
}

// Run processes a single user turn for a tenant. The conversation and
// tracker are created fresh per call and never shared, so concurrent Run
// calls are independent. A topology configuration error fails the request
// before any routing happens.
func (o *Orchestrator) Run(ctx context.Context, tenantID, userMessage string) (*domain.Conversation, error) {
	topo, err := o.source.GetOrLoad(ctx, tenantID, false)
	if err != nil {
		return nil, err
	}

	turnID := ulid.Make().String()
	ctx, span := tracer.StartSpan(ctx, "orchestrate.run",
		trace.WithAttributes(
			tracer.StringAttr("tenant.id", tenantID),
			tracer.StringAttr("turn.id", turnID),
		),
	)
	defer span.End()

	conv := domain.NewConversation(turnID, tenantID, userMessage)
	tracker := NewTracker()

	o.logger.Info("turn started", "tenant", tenantID, "turn", turnID)
	if err := topo.Root.Step(ctx, conv, tracker); err != nil {
		tracer.RecordError(span, err)
		return conv, err
	}

	// An immediate terminal decision leaves only the user's message; the
	// caller still gets an explanation of the outcome.
	if len(conv.Messages) == 1 {
		conv.Append(domain.Message{
			Role:    domain.RoleSystem,
			Content: "request completed without delegation; no worker was needed",
		})
	}

	// Terminal success: the next turn starts clean.
	tracker.Reset()
	conv.Next = domain.Terminal

	o.logger.Info("turn finished", "tenant", tenantID, "turn", turnID, "messages", len(conv.Messages))
	tracer.SetOK(span)
	return conv, nil
}
