package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"frames-ai/internal/config"
	"frames-ai/internal/console"
	"frames-ai/internal/history"
	"frames-ai/internal/llm"
	"frames-ai/internal/logging"
	"frames-ai/internal/router"
	"frames-ai/internal/scheduler"
	"frames-ai/internal/storage"
	"frames-ai/internal/tools"
	"frames-ai/internal/tools/calc"
	"frames-ai/internal/tools/pose"
)

func loadConfig(opts *options) (*config.Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", opts.EnvFile, err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.SessionFile != "" {
		cfg.SessionFile = opts.SessionFile
	}
	if opts.Provider != "" {
		cfg.LLMProvider = config.LLMProvider(strings.ToLower(strings.TrimSpace(opts.Provider)))
	}
	return cfg, nil
}

func runChat(parent context.Context, opts *options) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	_, logCloser, err := logging.Init(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: file logging disabled: %v\n", err)
	}
	defer logCloser.Close()

	preamble, err := readSystemPrompt(cfg.SystemPromptPath)
	if err != nil {
		return err
	}

	routes, err := routerConfig(cfg.RouterConfigPath)
	if err != nil {
		return err
	}
	classifier, err := router.New(routes)
	if err != nil {
		return fmt.Errorf("invalid router config: %w", err)
	}

	registry := tools.NewRegistry()
	if err := registry.Register("calc", calc.Handler); err != nil {
		return err
	}
	if err := pose.NewEngine(cfg.OutputDir).Register(registry); err != nil {
		return err
	}
	if err := checkRoutes(routes, registry); err != nil {
		return err
	}

	store := history.NewFileStore(cfg.SessionFile, preamble)
	session, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", cfg.SessionFile, err)
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory := llm.NewFactory(cfg)
	client, err := factory.CreateClient(ctx, string(cfg.LLMProvider))
	if err != nil {
		return fmt.Errorf("failed to create llm client: %w", err)
	}

	sessionID := newSessionID()
	loopOpts := []console.Option{
		console.WithTimeout(cfg.CompletionTimeout),
		console.WithCompletionOptions(completionOptions(cfg, opts.Model)),
		console.WithSessionID(sessionID),
		console.WithColor(!opts.NoColor && term.IsTerminal(int(os.Stdout.Fd()))),
	}
	if cfg.TurnLogPath != "" {
		rec, err := storage.NewFileRecorder(cfg.TurnLogPath)
		if err != nil {
			slog.Warn("journal_disabled", "path", cfg.TurnLogPath, "error", err)
		} else {
			loopOpts = append(loopOpts, console.WithRecorder(rec))
		}
	}

	if cfg.BackupSchedule != "" {
		sched := scheduler.New()
		sched.SetBackupFunction(func(context.Context) error {
			path, err := store.Backup(cfg.BackupDir, time.Now().UTC())
			if err == nil && path != "" {
				slog.Info("session_backup_written", "path", path)
			}
			return err
		})
		if err := sched.Start(cfg.BackupSchedule); err != nil {
			return err
		}
		defer sched.Stop()
	}

	slog.Info("frames_starting",
		"provider", cfg.LLMProvider,
		"model", firstNonEmpty(opts.Model, factory.DefaultModel(string(cfg.LLMProvider))),
		"session_file", cfg.SessionFile,
		"session_id", sessionID,
	)

	loop := console.New(store, session, classifier, registry, client, loopOpts...)
	return loop.Run(ctx)
}

func completionOptions(cfg *config.Config, model string) llm.Options {
	topP := cfg.TopP
	return llm.Options{Model: model, Temperature: cfg.Temperature, TopP: &topP}
}

func readSystemPrompt(path string) (string, error) {
	if path == "" {
		return history.DefaultPreamble, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read system prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return history.DefaultPreamble, nil
	}
	return prompt, nil
}

func routerConfig(path string) (router.Config, error) {
	if path == "" {
		return router.DefaultConfig(), nil
	}
	cfg, err := router.LoadConfig(path)
	if err != nil {
		return router.Config{}, err
	}
	return *cfg, nil
}

// checkRoutes makes sure every tool the router can emit is registered.
func checkRoutes(routes router.Config, reg *tools.Registry) error {
	names := append([]string{}, routes.KeywordTools...)
	for _, p := range routes.PrefixTools {
		names = append(names, p.Tool)
	}
	for _, name := range names {
		if _, ok := reg.Get(strings.ToLower(name)); !ok {
			return fmt.Errorf("router references unknown tool %q (available: %s)", name, strings.Join(reg.Names(), ", "))
		}
	}
	return nil
}

func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
