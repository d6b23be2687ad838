// Package tools dispatches locally handled commands. Handlers never reach the
// completion endpoint; their output is shown to the user and recorded in the
// session.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Handler runs a tool with the raw argument text that followed the trigger.
type Handler func(ctx context.Context, args string) (string, error)

// Result is what the user sees. IsError marks a failed invocation.
type Result struct {
	Content string
	IsError bool
}

type Registry struct {
	entries map[string]Handler
	mu      sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Handler)}
}

// Register adds a new tool. Returns ErrAlreadyExists if the name is taken;
// use Replace to swap a handler.
func (r *Registry) Register(name string, h Handler) error {
	if name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}
	r.entries[name] = h
	return nil
}

// Replace updates an existing tool's handler.
func (r *Registry) Replace(name string, h Handler) error {
	if name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	r.entries[name] = h
	return nil
}

func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.entries[name]
	return h, ok
}

// Names returns registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the named tool. It always yields a user-facing Result: unknown
// tools, handler errors and handler panics come back with IsError set.
func (r *Registry) Invoke(ctx context.Context, name, args string) (res Result) {
	h, ok := r.Get(name)
	if !ok {
		return Result{Content: fmt.Sprintf("%v: %s", ErrNotFound, name), IsError: true}
	}

	defer func() {
		if p := recover(); p != nil {
			slog.Error("tool_panic", "tool", name, "panic", p)
			res = Result{Content: fmt.Sprintf("tool %s crashed: %v", name, p), IsError: true}
		}
	}()

	out, err := h(ctx, args)
	if err != nil {
		slog.Debug("tool_failed", "tool", name, "error", err)
		return Result{Content: err.Error(), IsError: true}
	}
	return Result{Content: out}
}
