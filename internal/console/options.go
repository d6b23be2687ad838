package console

import (
	"io"
	"time"

	"frames-ai/internal/llm"
	"frames-ai/internal/storage"
)

// Option configures a Loop.
type Option func(*Loop)

func WithInput(r io.Reader) Option {
	return func(l *Loop) { l.in = r }
}

func WithOutput(w io.Writer) Option {
	return func(l *Loop) { l.out = w }
}

// WithRecorder journals every turn. A nil recorder disables the journal.
func WithRecorder(r storage.Recorder) Option {
	return func(l *Loop) { l.recorder = r }
}

// WithTimeout bounds each completion call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(l *Loop) { l.timeout = d }
}

func WithCompletionOptions(opts llm.Options) Option {
	return func(l *Loop) { l.completion = opts }
}

func WithSessionID(id string) Option {
	return func(l *Loop) { l.sessionID = id }
}

func WithColor(enabled bool) Option {
	return func(l *Loop) { l.styles = newStyles(enabled) }
}

func withClock(now func() time.Time) Option {
	return func(l *Loop) { l.now = now }
}
