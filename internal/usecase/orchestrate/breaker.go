package orchestrate

import "fmt"

// Default dispatch limits. These are safety nets against a misrouting
// oracle, not a search strategy: the oracle sees every target's description
// and is expected to route correctly on the first attempt.
const (
	DefaultMaxAttemptsPerTarget = 2
	DefaultMaxTotalAttempts     = 3
	DefaultMaxDepth             = 4
)

// Limits bound the delegation walk of a single user turn.
type Limits struct {
	MaxAttemptsPerTarget int `yaml:"max_attempts_per_target"`
	MaxTotalAttempts     int `yaml:"max_total_attempts"`
	MaxDepth             int `yaml:"max_depth"`
}

// DefaultLimits returns the recommended dispatch limits.
func DefaultLimits() Limits {
	return Limits{
		MaxAttemptsPerTarget: DefaultMaxAttemptsPerTarget,
		MaxTotalAttempts:     DefaultMaxTotalAttempts,
		MaxDepth:             DefaultMaxDepth,
	}
}

// withDefaults fills zero fields with the recommended values.
func (l Limits) withDefaults() Limits {
	if l.MaxAttemptsPerTarget <= 0 {
		l.MaxAttemptsPerTarget = DefaultMaxAttemptsPerTarget
	}
	if l.MaxTotalAttempts <= 0 {
		l.MaxTotalAttempts = DefaultMaxTotalAttempts
	}
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultMaxDepth
	}
	return l
}

// EvaluateDispatch decides whether a supervisor may dispatch to target.
// Pure policy over tracker state: depth first, then total attempts, then
// per-target attempts. A denial is a designed terminal outcome, surfaced to
// the caller with the returned reason.
func EvaluateDispatch(t *Tracker, target string, limits Limits) (bool, string) {
	if t.Depth() >= limits.MaxDepth {
		return false, "max delegation depth reached"
	}
	if t.TotalAttempts() >= limits.MaxTotalAttempts {
		return false, "too many routing attempts"
	}
	if n := t.AttemptsAt(target); n >= limits.MaxAttemptsPerTarget {
		return false, fmt.Sprintf("target %q already attempted %d times", target, n)
	}
	return true, ""
}
