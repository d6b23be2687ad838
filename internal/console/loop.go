// Package console runs the interactive session: it reads lines, routes them
// to small talk, local tools or the completion client, and keeps the
// persisted session in step with every turn.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"frames-ai/internal/history"
	"frames-ai/internal/llm"
	"frames-ai/internal/router"
	"frames-ai/internal/storage"
	"frames-ai/internal/tools"
)

const defaultTimeout = 30 * time.Second

type State int

const (
	StateRunning State = iota
	StateTerminating
)

func (s State) String() string {
	if s == StateTerminating {
		return "terminating"
	}
	return "running"
}

// Classifier turns an input line into a command.
type Classifier interface {
	Classify(raw string) router.Command
}

// Invoker runs a named local tool.
type Invoker interface {
	Invoke(ctx context.Context, name, args string) tools.Result
}

// Loop owns the live session. It is not safe for concurrent use.
type Loop struct {
	store      history.Store
	session    history.Session
	classifier Classifier
	tools      Invoker
	client     llm.Client

	in         io.Reader
	out        io.Writer
	recorder   storage.Recorder
	timeout    time.Duration
	completion llm.Options
	sessionID  string
	styles     styles
	now        func() time.Time

	state State
}

func New(store history.Store, session history.Session, classifier Classifier, invoker Invoker, client llm.Client, opts ...Option) *Loop {
	l := &Loop{
		store:      store,
		session:    session,
		classifier: classifier,
		tools:      invoker,
		client:     client,
		in:         os.Stdin,
		out:        os.Stdout,
		timeout:    defaultTimeout,
		styles:     newStyles(false),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Session returns the current session value.
func (l *Loop) Session() history.Session { return l.session }

func (l *Loop) State() State { return l.state }

// Run processes input until an exit command, end of input or cancellation
// of ctx. On every one of these paths the session is persisted once more
// before Run returns; the returned error reports only that final persist.
func (l *Loop) Run(ctx context.Context) error {
	l.state = StateRunning
	done := make(chan struct{})
	defer close(done)
	lines := readLines(l.in, done)

	l.println(l.styles.render(l.styles.banner, bannerText))
	slog.Info("session_started", "session_id", l.sessionID, "messages", l.session.Len())

	for l.state == StateRunning {
		if ctx.Err() != nil {
			l.state = StateTerminating
			break
		}
		l.print(l.styles.render(l.styles.prompt, promptText))
		select {
		case <-ctx.Done():
			l.println("")
			l.state = StateTerminating
		case line, ok := <-lines:
			if !ok {
				l.println("")
				l.state = StateTerminating
				continue
			}
			l.handle(ctx, line)
		}
	}
	return l.shutdown(ctx)
}

func (l *Loop) handle(ctx context.Context, line string) {
	cmd := l.classifier.Classify(line)
	switch cmd.Kind {
	case router.KindEmpty:
		return
	case router.KindExit:
		l.state = StateTerminating
	case router.KindSmallTalk:
		l.session = l.session.Append(
			llm.NewMessage(llm.RoleUser, cmd.Text),
			llm.NewMessage(llm.RoleAssistant, cmd.Reply),
		)
		l.println(l.styles.render(l.styles.reply, replyPrefix+cmd.Reply))
		l.record(storage.Event{Kind: storage.KindSmallTalk, UserMessage: cmd.Text, AssistantResponse: cmd.Reply})
		l.persist()
	case router.KindTool:
		l.runTool(ctx, cmd)
	case router.KindChat:
		l.chat(ctx, cmd)
	}
}

func (l *Loop) runTool(ctx context.Context, cmd router.Command) {
	l.session = l.session.Append(llm.NewMessage(llm.RoleUser, cmd.Text))
	res := l.tools.Invoke(ctx, cmd.Name, cmd.Args)
	l.session = l.session.Append(llm.NewMessage(llm.RoleSystem, res.Content))
	slog.Info("tool_turn", "session_id", l.sessionID, "tool", cmd.Name, "is_error", res.IsError)

	if res.IsError {
		l.printError(res.Content)
	} else {
		l.println(l.styles.render(l.styles.tool, toolPrefix+res.Content))
	}
	l.record(storage.Event{
		Kind:              storage.KindTool,
		Tool:              cmd.Name,
		UserMessage:       cmd.Text,
		AssistantResponse: res.Content,
		IsError:           res.IsError,
	})
	l.persist()
}

func (l *Loop) chat(ctx context.Context, cmd router.Command) {
	l.session = l.session.Append(llm.NewMessage(llm.RoleUser, cmd.Text))

	callCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	start := l.now()
	resp, err := l.client.Generate(callCtx, l.session.Messages(), l.completion)
	if err != nil {
		slog.Error("chat_turn_failed", "session_id", l.sessionID, "error", err)
		l.printError(describeCompletionError(err))
		l.record(storage.Event{Kind: storage.KindChat, UserMessage: cmd.Text, AssistantResponse: err.Error(), IsError: true})
		l.persist()
		return
	}

	l.session = l.session.Append(llm.NewMessage(llm.RoleAssistant, resp.Content))
	slog.Info("chat_turn",
		"session_id", l.sessionID,
		"model", resp.Model,
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens,
		"total_tokens", resp.TotalTokens,
		"duration_ms", l.now().Sub(start).Milliseconds(),
	)
	l.println(l.styles.render(l.styles.reply, replyPrefix+resp.Content))
	l.record(storage.Event{
		Kind:              storage.KindChat,
		UserMessage:       cmd.Text,
		AssistantResponse: resp.Content,
		Model:             resp.Model,
		TotalTokens:       resp.TotalTokens,
	})
	l.persist()
}

func (l *Loop) shutdown(ctx context.Context) error {
	cause := "exit"
	if ctx.Err() != nil {
		cause = "signal"
	}
	if err := l.store.Persist(l.session); err != nil {
		slog.Error("session_persist_failed", "session_id", l.sessionID, "error", err, "final", true)
		l.printError("could not save memory: " + err.Error())
		return fmt.Errorf("persist session: %w", err)
	}
	slog.Info("session_closed", "session_id", l.sessionID, "cause", cause, "messages", l.session.Len())
	l.println(l.styles.render(l.styles.farewell, farewellText))
	return nil
}

// persist saves after a turn. A failure is reported and the next turn
// retries with the full session.
func (l *Loop) persist() {
	if err := l.store.Persist(l.session); err != nil {
		slog.Error("session_persist_failed", "session_id", l.sessionID, "error", err)
		l.printError("could not save memory: " + err.Error())
	}
}

func (l *Loop) record(ev storage.Event) {
	if l.recorder == nil {
		return
	}
	ev.Timestamp = l.now().UTC()
	ev.SessionID = l.sessionID
	if err := l.recorder.AppendInteraction(ev); err != nil {
		slog.Warn("journal_append_failed", "error", err)
	}
}

func (l *Loop) print(s string) { fmt.Fprint(l.out, s) }

func (l *Loop) println(s string) { fmt.Fprintln(l.out, s) }

func (l *Loop) printError(msg string) {
	l.println(l.styles.render(l.styles.errorMsg, errorPrefix+msg))
}

func describeCompletionError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "the model took too long to answer, try again"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	default:
		return err.Error()
	}
}

// readLines feeds input lines to the returned channel until EOF, a read
// error or done is closed. The channel is closed when reading stops.
func readLines(r io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		s := bufio.NewScanner(r)
		s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for s.Scan() {
			select {
			case lines <- s.Text():
			case <-done:
				return
			}
		}
		if err := s.Err(); err != nil {
			slog.Error("input_read_failed", "error", err)
		}
	}()
	return lines
}
