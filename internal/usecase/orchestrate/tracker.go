// Package orchestrate implements the recursive supervisor/worker routing
// state machine: delegation tracking, dispatch policy, node execution, and
// output judging.
package orchestrate

// Tracker records the delegation walk of a single user turn. It is a plain
// per-request value: created at turn start, threaded through every supervisor
// invocation, never shared across requests.
type Tracker struct {
	// Path is the ordered list of node names visited in the current
	// root-to-leaf attempt. Depth is always len(Path).
	Path []string

	// Attempts counts dispatches per node name.
	Attempts map[string]int

	// Failed holds node names that have reported failure this turn.
	Failed map[string]bool
}

// NewTracker creates an empty tracker for a fresh user turn.
func NewTracker() *Tracker {
	return &Tracker{
		Attempts: make(map[string]int),
		Failed:   make(map[string]bool),
	}
}

// Depth is the cumulative delegation depth, equal to the path length.
func (t *Tracker) Depth() int { return len(t.Path) }

// TotalAttempts is the sum of per-target attempt counts.
func (t *Tracker) TotalAttempts() int {
	total := 0
	for _, n := range t.Attempts {
		total += n
	}
	return total
}

// AttemptsAt returns the attempt count recorded for a target.
func (t *Tracker) AttemptsAt(name string) int { return t.Attempts[name] }

// Extend records a dispatch: appends the target to the path and increments
// its attempt counter.
func (t *Tracker) Extend(name string) {
	t.Path = append(t.Path, name)
	t.Attempts[name]++
}

// MarkFailed records that a node reported failure.
func (t *Tracker) MarkFailed(name string) {
	if name != "" {
		t.Failed[name] = true
	}
}

// HasFailed reports whether a node has failed this turn.
func (t *Tracker) HasFailed(name string) bool { return t.Failed[name] }

// Reset clears all state so the next turn starts clean.
func (t *Tracker) Reset() {
	t.Path = t.Path[:0]
	t.Attempts = make(map[string]int)
	t.Failed = make(map[string]bool)
}
