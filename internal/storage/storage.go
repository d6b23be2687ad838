package storage

import "time"

type Kind string

const (
	KindChat      Kind = "chat"
	KindTool      Kind = "tool"
	KindSmallTalk Kind = "small_talk"
)

// Event records one turn of a console session: what the user typed and what
// came back, whether from the model, a tool or a canned reply.
// Events are appended in chronological order.
type Event struct {
	Timestamp         time.Time `json:"timestamp"`
	SessionID         string    `json:"session_id"`
	Kind              Kind      `json:"kind"`
	Tool              string    `json:"tool,omitempty"`
	UserMessage       string    `json:"user_message"`
	AssistantResponse string    `json:"assistant_response"`
	IsError           bool      `json:"is_error,omitempty"`
	Model             string    `json:"model,omitempty"`
	TotalTokens       int       `json:"total_tokens,omitempty"`
}

// Recorder abstracts persistence of turn events.
// LoadInteractions returns events in chronological order.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendInteraction(event Event) error
	LoadInteractions() ([]Event, error)
}
