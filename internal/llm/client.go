package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrCompletion marks every failure of a remote completion call: transport,
// auth, timeout or an unusable response. Callers treat it as a per-turn error.
var ErrCompletion = errors.New("completion failed")

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole maps a persisted role string onto a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleSystem, RoleUser, RoleAssistant:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// Options are the sampling parameters sent with every request.
// An empty Model means the provider default.
type Options struct {
	Model       string
	Temperature float32
	TopP        *float32
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Client interface {
	Generate(ctx context.Context, messages []Message, opts Options) (Response, error)
}

func completionError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCompletion, fmt.Sprintf(format, args...))
}

func wrapCompletion(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCompletion, op, err)
}
