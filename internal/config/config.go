package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderGemini LLMProvider = "gemini"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	GitHubToken      string      `env:"GITHUB_TOKEN"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL" envDefault:"https://models.github.ai/inference"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"openai/gpt-4.1"`
	GeminiAPIKey     string      `env:"GEMINI_API_KEY"`
	GeminiModel      string      `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Sampling
	Temperature       float32       `env:"TEMPERATURE" envDefault:"0.7"`
	TopP              float32       `env:"TOP_P" envDefault:"1"`
	CompletionTimeout time.Duration `env:"COMPLETION_TIMEOUT" envDefault:"30s"`

	// Prompts and routing
	SystemPromptPath string `env:"SYSTEM_PROMPT_PATH"`
	RouterConfigPath string `env:"ROUTER_CONFIG_PATH"`

	// Storage
	SessionFile string `env:"SESSION_FILE" envDefault:"memory.json"`
	OutputDir   string `env:"OUTPUT_DIR" envDefault:"."`
	TurnLogPath string `env:"TURN_LOG_PATH" envDefault:"logs/turns.jsonl"`

	// Backups
	BackupSchedule string `env:"BACKUP_SCHEDULE"`
	BackupDir      string `env:"BACKUP_DIR" envDefault:"backups"`

	// Diagnostics
	LogFile   string `env:"LOG_FILE" envDefault:"logs/frames.log"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load parses the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.LLMProvider = LLMProvider(strings.ToLower(strings.TrimSpace(string(cfg.LLMProvider))))
	return cfg, nil
}

// OpenAIKey returns the credential for the OpenAI-compatible endpoint.
// GITHUB_TOKEN is accepted for the GitHub Models endpoint.
func (c *Config) OpenAIKey() string {
	if c.OpenAIAPIKey != "" {
		return c.OpenAIAPIKey
	}
	return c.GitHubToken
}

// Validate reports missing credentials for the selected provider.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIKey() == "" {
			return fmt.Errorf("missing OPENAI_API_KEY or GITHUB_TOKEN")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("missing GEMINI_API_KEY")
		}
	case ProviderYandex:
		if c.YandexOAuthToken == "" || c.YandexFolderID == "" {
			return fmt.Errorf("missing YANDEX_OAUTH_TOKEN or YANDEX_FOLDER_ID")
		}
	default:
		return fmt.Errorf("unknown llm provider: %s", c.LLMProvider)
	}
	if c.SessionFile == "" {
		return fmt.Errorf("SESSION_FILE must not be empty")
	}
	if c.CompletionTimeout < 0 {
		return fmt.Errorf("COMPLETION_TIMEOUT must not be negative")
	}
	return nil
}
