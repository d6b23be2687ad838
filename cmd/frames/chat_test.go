package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"frames-ai/internal/config"
	"frames-ai/internal/history"
	"frames-ai/internal/router"
	"frames-ai/internal/tools"
	"frames-ai/internal/tools/calc"
	"frames-ai/internal/tools/pose"
)

func TestReadSystemPrompt(t *testing.T) {
	got, err := readSystemPrompt("")
	if err != nil || got != history.DefaultPreamble {
		t.Fatalf("empty path: %q, %v", got, err)
	}

	p := filepath.Join(t.TempDir(), "prompt.txt")
	if err := os.WriteFile(p, []byte("  You animate.\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err = readSystemPrompt(p)
	if err != nil || got != "You animate." {
		t.Fatalf("file prompt: %q, %v", got, err)
	}

	if _, err := readSystemPrompt(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected error for unreadable prompt file")
	}
}

func TestCheckRoutes(t *testing.T) {
	reg := tools.NewRegistry()
	if err := reg.Register("calc", calc.Handler); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := pose.NewEngine(t.TempDir()).Register(reg); err != nil {
		t.Fatalf("register pose: %v", err)
	}
	if err := checkRoutes(router.DefaultConfig(), reg); err != nil {
		t.Fatalf("default routes: %v", err)
	}

	routes := router.DefaultConfig()
	routes.KeywordTools = append(routes.KeywordTools, "dance")
	err := checkRoutes(routes, reg)
	if err == nil || !strings.Contains(err.Error(), "dance") {
		t.Fatalf("expected unknown tool error, got %v", err)
	}
}

func TestCheckRoutes_MixedCaseToolName(t *testing.T) {
	reg := tools.NewRegistry()
	if err := reg.Register("calc", calc.Handler); err != nil {
		t.Fatalf("register: %v", err)
	}
	routes := router.Config{PrefixTools: []router.PrefixTool{{Prefix: "calc", Tool: "Calc"}}}
	if err := checkRoutes(routes, reg); err != nil {
		t.Fatalf("check routes: %v", err)
	}
	r, err := router.New(routes)
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	cmd := r.Classify("calc 2+2")
	if res := reg.Invoke(context.Background(), cmd.Name, cmd.Args); res.IsError || res.Content != "4" {
		t.Fatalf("routed tool failed: %+v", res)
	}
}

func TestRouterConfigFromFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "router.yaml")
	if err := os.WriteFile(p, []byte("exit_words: [bye]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := routerConfig(p)
	if err != nil {
		t.Fatalf("router config: %v", err)
	}
	if len(cfg.ExitWords) != 1 || cfg.ExitWords[0] != "bye" {
		t.Fatalf("exit words not merged: %+v", cfg.ExitWords)
	}
	if len(cfg.KeywordTools) == 0 {
		t.Fatalf("defaults lost on merge")
	}
}

func TestCompletionOptions(t *testing.T) {
	cfg := &config.Config{Temperature: 0.2, TopP: 0.9}
	opts := completionOptions(cfg, "m")
	if opts.Model != "m" || opts.Temperature != 0.2 || opts.TopP == nil || *opts.TopP != 0.9 {
		t.Fatalf("unexpected options: %+v", opts)
	}
}
