package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const geminiDefaultModel = "gemini-2.0-flash"

type geminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient talks to the Gemini Developer API. System messages are folded
// into the system instruction; tool output injected mid-session therefore
// reaches the model as additional instructions.
type GeminiClient struct {
	models geminiModels
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if model == "" {
		model = geminiDefaultModel
	}
	return &GeminiClient{models: client.Models, model: model}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, messages []Message, opts Options) (Response, error) {
	model := c.model
	if opts.Model != "" {
		model = opts.Model
	}

	contents, system := splitGeminiHistory(messages)
	if len(contents) == 0 {
		return Response{}, completionError("gemini request has no user or assistant messages")
	}

	temperature := opts.Temperature
	cfg := &genai.GenerateContentConfig{Temperature: &temperature}
	if opts.TopP != nil {
		topP := *opts.TopP
		cfg.TopP = &topP
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := c.models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return Response{}, wrapCompletion("gemini generate content", err)
	}
	text := geminiText(resp)
	if text == "" {
		return Response{}, completionError("gemini returned empty response")
	}

	out := Response{Content: text, Model: model}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		out.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return out, nil
}

func splitGeminiHistory(messages []Message) ([]*genai.Content, string) {
	contents := make([]*genai.Content, 0, len(messages))
	var system []string
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			if s := strings.TrimSpace(m.Content); s != "" {
				system = append(system, s)
			}
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return contents, strings.Join(system, "\n\n")
}

func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}
