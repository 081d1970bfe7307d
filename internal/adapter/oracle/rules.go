package oracle

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"overseer-ai/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Rule maps a task keyword to a routing target.
type Rule struct {
	Contains string
	Target   string
}

// RulesOracle is a deterministic oracle: it routes by keyword rules over
// the task text and terminates once any node has produced output. Useful
// offline and as a transcript-testable routing backend.
type RulesOracle struct {
	rules  []Rule
	logger *slog.Logger
}

var _ domain.DecisionOracle = (*RulesOracle)(nil)

// NewRulesOracle creates a rules oracle. Rules match first-hit-wins.
func NewRulesOracle(rules []Rule, logger *slog.Logger) *RulesOracle {
	if logger == nil {
		logger = discardLogger()
	}
	return &RulesOracle{rules: rules, logger: logger}
}

// Route implements domain.DecisionOracle. A labeled message at the end of
// the transcript means a node already answered, so the turn is done.
func (o *RulesOracle) Route(_ context.Context, req domain.RouteRequest) (string, error) {
	if len(req.Messages) > 0 {
		last := req.Messages[len(req.Messages)-1]
		if last.Name != "" && !last.IsFailure {
			return domain.Terminal, nil
		}
	}

	task := strings.ToLower(taskOf(req.Messages))
	allowed := make(map[string]bool, len(req.Candidates))
	for _, c := range req.Candidates {
		allowed[c.Name] = true
	}

	for _, rule := range o.rules {
		if strings.Contains(task, strings.ToLower(rule.Contains)) && allowed[rule.Target] {
			o.logger.Debug("rule matched", "contains", rule.Contains, "target", rule.Target)
			return rule.Target, nil
		}
	}
	return domain.Terminal, nil
}

// Judge implements domain.DecisionOracle with a fixed accepting verdict;
// rule-based deployments opt out of output judging.
func (o *RulesOracle) Judge(_ context.Context, _ domain.JudgeRequest) (*domain.Judgement, error) {
	return &domain.Judgement{Score: 8, Sufficient: true}, nil
}

func taskOf(messages []domain.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser && messages[i].Name == "" {
			return messages[i].Content
		}
	}
	return ""
}
