package orchestrate

import (
	"context"
	"log/slog"

	"overseer-ai/internal/domain"
)

// sufficientScore is the minimum score for a worker output to count as
// satisfying the task.
const sufficientScore = 7

// Judge scores a worker's output against the original task and decides
// whether a retry is worth recommending.
type Judge struct {
	oracle domain.DecisionOracle
	logger *slog.Logger
}

// NewJudge creates a judge backed by the given oracle.
func NewJudge(oracle domain.DecisionOracle, logger *slog.Logger) *Judge {
	return &Judge{oracle: oracle, logger: logger}
}

// Evaluate asks the oracle to score output against task. Judge availability
// must never block termination: on oracle failure the output is deemed
// sufficient and the request proceeds to its natural end.
func (j *Judge) Evaluate(ctx context.Context, task, worker, output string) domain.Judgement {
	verdict, err := j.oracle.Judge(ctx, domain.JudgeRequest{
		Task:   task,
		Worker: worker,
		Output: output,
	})
	if err != nil || verdict == nil {
		j.logger.Warn("judge unavailable, accepting worker output", "worker", worker, "error", err)
		return domain.Judgement{Score: sufficientScore, Sufficient: true}
	}

	result := *verdict
	result.Sufficient = result.Score >= sufficientScore
	if result.Sufficient {
		result.Retry = false
	}
	return result
}
