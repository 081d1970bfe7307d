package domain

import "context"

// Candidate is one routing option offered to the decision oracle.
type Candidate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RouteRequest carries everything the oracle needs to pick the next target.
type RouteRequest struct {
	Supervisor string      `json:"supervisor"`
	Prompt     string      `json:"prompt"` // supervisor instruction text, opaque to the core
	Messages   []Message   `json:"messages"`
	Candidates []Candidate `json:"candidates"`

	// Guidance holds prior judge critique, if any, informing the decision.
	Guidance string `json:"guidance,omitempty"`
}

// JudgeRequest asks the oracle whether a worker's output satisfied the task.
type JudgeRequest struct {
	Task   string `json:"task"`
	Worker string `json:"worker"`
	Output string `json:"output"`
}

// Judgement is the oracle's verdict on a worker output.
type Judgement struct {
	Score      int    `json:"score"` // 1-10
	Sufficient bool   `json:"sufficient"`
	Critique   string `json:"critique,omitempty"`
	Retry      bool   `json:"retry,omitempty"`
}

// DecisionOracle resolves "which child next, or stop" and "is this output
// good enough". Implementations may be a temperature-zero language model, a
// rules engine, or a scripted stub; the core is indifferent.
type DecisionOracle interface {
	// Route returns the name of one of req.Candidates, or Terminal.
	Route(ctx context.Context, req RouteRequest) (string, error)
	Judge(ctx context.Context, req JudgeRequest) (*Judgement, error)
}
