package orchestrate

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"overseer-ai/internal/domain"
	"overseer-ai/internal/infra/tracer"
)

// discardLogger returns a no-op logger for nodes created without one.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SupervisorDeps holds injected dependencies for a supervisor node.
type SupervisorDeps struct {
	Oracle   domain.DecisionOracle
	Judge    *Judge           // optional, nil = no output judging
	Detector *FailureDetector // optional, nil = default phrase list
	Limits   Limits           // zero fields replaced with defaults
	Logger   *slog.Logger     // optional
}

// Supervisor is the recursive orchestration unit: it consults the oracle,
// gates the choice through the dispatch policy, updates the tracker, and
// hands control to the chosen child until a terminal decision.
type Supervisor struct {
	name       string
	prompt     string
	children   map[string]Node
	candidates []domain.Candidate // declared child order
	oracle     domain.DecisionOracle
	judge      *Judge
	detector   *FailureDetector
	limits     Limits
	logger     *slog.Logger
}

// NewSupervisor creates a supervisor over the given children. candidates
// must name the children in declared order; descriptions are the routing
// hints shown to the oracle.
func NewSupervisor(name, prompt string, children []Node, candidates []domain.Candidate, deps SupervisorDeps) *Supervisor {
	byName := make(map[string]Node, len(children))
	for _, c := range children {
		byName[c.Name()] = c
	}
	if deps.Detector == nil {
		deps.Detector = NewFailureDetector(nil)
	}
	if deps.Logger == nil {
		deps.Logger = discardLogger()
	}
	return &Supervisor{
		name:       name,
		prompt:     prompt,
		children:   byName,
		candidates: candidates,
		oracle:     deps.Oracle,
		judge:      deps.Judge,
		detector:   deps.Detector,
		limits:     deps.Limits.withDefaults(),
		logger:     deps.Logger,
	}
}

// Name implements Node.
func (s *Supervisor) Name() string { return s.name }

// Children returns the candidate names in declared order.
func (s *Supervisor) Children() []string {
	names := make([]string, len(s.candidates))
	for i, c := range s.candidates {
		names[i] = c.Name
	}
	return names
}

// Step implements Node: the routing loop for one subgraph. It returns when
// the oracle decides terminal, the dispatch policy denies further
// delegation, or routing becomes unavailable. Every exit leaves at least
// one message in the conversation explaining the outcome.
func (s *Supervisor) Step(ctx context.Context, conv *domain.Conversation, tracker *Tracker) error {
	ctx, span := tracer.StartSpan(ctx, "supervisor.step",
		trace.WithAttributes(
			tracer.StringAttr("node.name", s.name),
			tracer.IntAttr("delegation.depth", tracker.Depth()),
		),
	)
	defer span.End()

	guidance := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Bookkeeping: if the most recent message came from a child that
		// reported failure, record it before deciding.
		if last, ok := conv.Last(); ok && s.detector.IsFailure(last) {
			tracker.MarkFailed(last.Name)
		}

		chosen, err := s.oracle.Route(ctx, domain.RouteRequest{
			Supervisor: s.name,
			Prompt:     s.prompt,
			Messages:   conv.Messages,
			Candidates: s.candidates,
			Guidance:   guidance,
		})
		if err != nil {
			// Retries are exhausted by the oracle client; fail closed
			// rather than guess a route.
			tracer.RecordError(span, err)
			s.logger.Error("routing unavailable", "supervisor", s.name, "error", err)
			s.terminate(conv, fmt.Sprintf("routing unavailable, stopping: %v", err))
			return nil
		}

		if chosen == domain.Terminal {
			s.logger.Debug("terminal decision", "supervisor", s.name, "depth", tracker.Depth())
			conv.Next = domain.Terminal
			return nil
		}

		child, ok := s.children[chosen]
		if !ok {
			s.logger.Error("unknown candidate chosen",
				"supervisor", s.name, "target", chosen)
			s.terminate(conv, fmt.Sprintf("supervisor %q has no target %q: %v", s.name, chosen, domain.ErrUnknownCandidate))
			return nil
		}

		allowed, reason := EvaluateDispatch(tracker, chosen, s.limits)
		if !allowed {
			s.logger.Warn("dispatch denied",
				"supervisor", s.name, "target", chosen, "reason", reason,
				"depth", tracker.Depth(), "attempts", tracker.TotalAttempts())
			s.terminate(conv, "delegation stopped: "+reason)
			return nil
		}

		tracker.Extend(chosen)
		conv.Next = chosen
		s.logger.Debug("dispatch",
			"supervisor", s.name, "target", chosen,
			"depth", tracker.Depth(), "attempt", tracker.AttemptsAt(chosen))

		before := len(conv.Messages)
		if err := child.Step(ctx, conv, tracker); err != nil {
			return err
		}

		// A nested subgraph returns one aggregated result; relabel it with
		// the team's name so this level's bookkeeping sees its own child.
		// Only messages the subgraph itself produced qualify: a team that
		// terminated without adding anything gets a system note, never a
		// fabricated answer.
		if _, nested := child.(*Supervisor); nested {
			if len(conv.Messages) == before {
				conv.Append(domain.Message{
					Role:    domain.RoleSystem,
					Content: fmt.Sprintf("team %q had nothing to add", chosen),
				})
			} else if last, ok := conv.Last(); ok && last.Name != chosen {
				conv.Append(domain.Message{
					Role:      domain.RoleAssistant,
					Name:      chosen,
					Content:   last.Content,
					IsFailure: last.IsFailure,
				})
			}
		}

		guidance = ""
		if s.judge != nil {
			if _, isWorker := child.(*Worker); isWorker {
				if last, ok := conv.Last(); ok && !last.IsFailure {
					verdict := s.judge.Evaluate(ctx, conv.Task(), chosen, last.Content)
					if !verdict.Sufficient && verdict.Retry && verdict.Critique != "" {
						// The critique informs the next routing decision;
						// the oracle still makes the final call.
						guidance = verdict.Critique
						conv.Append(domain.Message{
							Role:    domain.RoleSystem,
							Content: "reviewer guidance: " + verdict.Critique,
						})
						s.logger.Info("judge recommends retry",
							"supervisor", s.name, "worker", chosen, "score", verdict.Score)
					}
				}
			}
		}
	}
}

// terminate appends a system-authored outcome message and marks the
// conversation finished. Silent empty termination is not permitted.
func (s *Supervisor) terminate(conv *domain.Conversation, reason string) {
	conv.Append(domain.Message{Role: domain.RoleSystem, Content: reason})
	conv.Next = domain.Terminal
}
