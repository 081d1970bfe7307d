package orchestrate

import (
	"strings"

	"overseer-ai/internal/domain"
)

// DefaultFailurePhrases classify a worker's natural-language output as a
// failure when no structured flag is present. A compatibility shim for
// capabilities that only speak prose; the structured IsFailure flag wins
// whenever a worker sets it.
var DefaultFailurePhrases = []string{
	"cannot",
	"can't",
	"unable to",
	"don't have",
	"not able to",
	"no access",
	"failed to",
}

// FailureDetector classifies node output messages as success or failure.
type FailureDetector struct {
	phrases []string
}

// NewFailureDetector creates a detector with the given phrase list.
// A nil or empty list falls back to DefaultFailurePhrases.
func NewFailureDetector(phrases []string) *FailureDetector {
	if len(phrases) == 0 {
		phrases = DefaultFailurePhrases
	}
	lowered := make([]string, len(phrases))
	for i, p := range phrases {
		lowered[i] = strings.ToLower(p)
	}
	return &FailureDetector{phrases: lowered}
}

// IsFailure reports whether msg indicates the producing node failed.
// Only node-labeled assistant messages are classified; user input and
// system messages never count as failures.
func (d *FailureDetector) IsFailure(msg domain.Message) bool {
	if msg.Role != domain.RoleAssistant || msg.Name == "" {
		return false
	}
	if msg.IsFailure {
		return true
	}
	content := strings.ToLower(msg.Content)
	for _, p := range d.phrases {
		if strings.Contains(content, p) {
			return true
		}
	}
	return false
}
