package orchestrate

import (
	"testing"

	"overseer-ai/internal/domain"
)

func TestFailureDetectorDefaults(t *testing.T) {
	d := NewFailureDetector(nil)

	tests := []struct {
		name string
		msg  domain.Message
		want bool
	}{
		{
			name: "structured flag",
			msg:  domain.Message{Role: domain.RoleAssistant, Name: "w", Content: "fine", IsFailure: true},
			want: true,
		},
		{
			name: "phrase match",
			msg:  domain.Message{Role: domain.RoleAssistant, Name: "w", Content: "I cannot complete this"},
			want: true,
		},
		{
			name: "phrase match is case insensitive",
			msg:  domain.Message{Role: domain.RoleAssistant, Name: "w", Content: "UNABLE TO reach the backend"},
			want: true,
		},
		{
			name: "clean output",
			msg:  domain.Message{Role: domain.RoleAssistant, Name: "w", Content: "found 3 recipes"},
			want: false,
		},
		{
			name: "unlabeled assistant message never counts",
			msg:  domain.Message{Role: domain.RoleAssistant, Content: "cannot do that"},
			want: false,
		},
		{
			name: "user message never counts",
			msg:  domain.Message{Role: domain.RoleUser, Name: "w", Content: "I cannot decide"},
			want: false,
		},
		{
			name: "system message never counts",
			msg:  domain.Message{Role: domain.RoleSystem, Content: "failed to route"},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.IsFailure(tt.msg); got != tt.want {
				t.Errorf("IsFailure = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFailureDetectorCustomPhrases(t *testing.T) {
	d := NewFailureDetector([]string{"OUT OF SCOPE"})

	msg := domain.Message{Role: domain.RoleAssistant, Name: "w", Content: "this is out of scope for me"}
	if !d.IsFailure(msg) {
		t.Error("custom phrase should match case-insensitively")
	}

	// The default list is replaced, not extended.
	msg = domain.Message{Role: domain.RoleAssistant, Name: "w", Content: "I cannot do this"}
	if d.IsFailure(msg) {
		t.Error("default phrases should not apply with a custom list")
	}
}
