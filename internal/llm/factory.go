package llm

import (
	"context"
	"fmt"
	"strings"

	"frames-ai/internal/config"
)

// Factory creates LLM clients with consistent logic
type Factory struct {
	OpenaiAPIKey       string
	OpenaiBaseURL      string
	OpenaiModel        string
	OpenRouterReferrer string
	OpenRouterTitle    string
	GeminiAPIKey       string
	GeminiModel        string
	YandexOAuthToken   string
	YandexFolderID     string
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		OpenaiAPIKey:       cfg.OpenAIKey(),
		OpenaiBaseURL:      cfg.OpenAIBaseURL,
		OpenaiModel:        cfg.OpenAIModel,
		OpenRouterReferrer: cfg.OpenRouterReferrer,
		OpenRouterTitle:    cfg.OpenRouterTitle,
		GeminiAPIKey:       cfg.GeminiAPIKey,
		GeminiModel:        cfg.GeminiModel,
		YandexOAuthToken:   cfg.YandexOAuthToken,
		YandexFolderID:     cfg.YandexFolderID,
	}
}

func (f *Factory) CreateClient(ctx context.Context, provider string) (Client, error) {
	switch config.LLMProvider(strings.ToLower(provider)) {
	case config.ProviderOpenAI:
		return NewOpenAI(f.OpenaiAPIKey, f.OpenaiBaseURL, f.OpenaiModel, f.OpenRouterReferrer, f.OpenRouterTitle), nil
	case config.ProviderGemini:
		return NewGemini(ctx, f.GeminiAPIKey, f.GeminiModel)
	case config.ProviderYandex:
		return NewYandex(f.YandexOAuthToken, f.YandexFolderID)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}

// DefaultModel is the model name reported for provider when no override is set.
func (f *Factory) DefaultModel(provider string) string {
	switch config.LLMProvider(strings.ToLower(provider)) {
	case config.ProviderOpenAI:
		return f.OpenaiModel
	case config.ProviderGemini:
		if f.GeminiModel == "" {
			return geminiDefaultModel
		}
		return f.GeminiModel
	default:
		return ""
	}
}
