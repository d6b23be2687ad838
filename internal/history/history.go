// Package history holds the conversation transcript and its on-disk form.
package history

import (
	"slices"

	"frames-ai/internal/llm"
)

// DefaultPreamble is the persona used when no system prompt is configured.
const DefaultPreamble = "You are Frames AI, a creative assistant that helps build " +
	"storyboards and generate motion poses from user commands."

// Session is the ordered transcript of one conversation. The first message is
// always the system preamble. Values are immutable: Append returns a new
// Session and never writes into the receiver's backing array.
type Session struct {
	messages []llm.Message
}

func New(preamble string) Session {
	if preamble == "" {
		preamble = DefaultPreamble
	}
	return Session{messages: []llm.Message{llm.NewMessage(llm.RoleSystem, preamble)}}
}

func (s Session) Append(msgs ...llm.Message) Session {
	out := make([]llm.Message, 0, len(s.messages)+len(msgs))
	out = append(out, s.messages...)
	out = append(out, msgs...)
	return Session{messages: out}
}

// Messages returns a copy of the transcript.
func (s Session) Messages() []llm.Message {
	return slices.Clone(s.messages)
}

func (s Session) Len() int { return len(s.messages) }

func (s Session) Preamble() string {
	if len(s.messages) == 0 {
		return ""
	}
	return s.messages[0].Content
}

// Last returns the most recent message, if any.
func (s Session) Last() (llm.Message, bool) {
	if len(s.messages) == 0 {
		return llm.Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

func (s Session) Equal(other Session) bool {
	return slices.Equal(s.messages, other.messages)
}
