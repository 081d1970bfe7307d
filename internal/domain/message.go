package domain

import "time"

// Role constants for conversation messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Terminal is the routing sentinel a supervisor decision uses to signal
// "stop delegating, return to the caller".
const Terminal = "FINISH"

// Message is a single labeled entry in a conversation. Name carries the
// producing node's name for worker and team output; it is empty for user
// input and orchestrator-authored system messages.
type Message struct {
	Role    string `json:"role"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`

	// IsFailure is the structured failure channel: workers set it when a
	// capability invocation failed, so supervisors do not have to rely on
	// phrase matching alone.
	IsFailure bool `json:"is_failure,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Conversation is the unit of state threaded through one request: an ordered,
// append-only message sequence plus the most recent routing decision.
type Conversation struct {
	ID       string    `json:"id"`
	TenantID string    `json:"tenant_id"`
	Messages []Message `json:"messages"`

	// Next is the target chosen by the most recent supervisor decision,
	// or Terminal once the request has finished.
	Next string `json:"next,omitempty"`
}

// NewConversation creates a conversation seeded with the user's request.
func NewConversation(id, tenantID, userMessage string) *Conversation {
	return &Conversation{
		ID:       id,
		TenantID: tenantID,
		Messages: []Message{{
			Role:      RoleUser,
			Content:   userMessage,
			Timestamp: time.Now(),
		}},
	}
}

// Append adds a message to the conversation.
func (c *Conversation) Append(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	c.Messages = append(c.Messages, msg)
}

// Last returns the most recent message, if any.
func (c *Conversation) Last() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// Task returns the most recent user message content. This is the "original
// task" judged against worker output.
func (c *Conversation) Task() string {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return c.Messages[i].Content
		}
	}
	return ""
}
