package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Morwran/yagpt"
)

type YandexClient struct {
	ya       yagpt.YaGPTFace
	iamToken string
}

func NewYandex(oauthToken, folderID string) (*YandexClient, error) {
	// Create IAM token from OAuth token
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init yandex iam: %w", err)
	}
	resp, err := iam.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create iam token: %w", err)
	}

	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to init yagpt: %w", err)
	}

	return &YandexClient{
		ya:       ya,
		iamToken: resp.IamToken,
	}, nil
}

// Generate sends the whole history. YaGPT picks the model and sampling on its
// side, so opts are only logged.
func (c *YandexClient) Generate(ctx context.Context, messages []Message, opts Options) (Response, error) {
	yaMsgs := make([]yagpt.Message, 0, len(messages))
	for _, m := range messages {
		yaMsgs = append(yaMsgs, toYandexMessage(m))
	}
	slog.Debug("yandex_generate", "messages", len(yaMsgs), "requested_model", opts.Model)

	resp, err := c.ya.CompletionWithCtx(ctx, c.iamToken, yaMsgs)
	if err != nil {
		return Response{}, wrapCompletion("yagpt completion", err)
	}
	if resp == nil || len(resp.Alternatives) == 0 {
		return Response{}, completionError("yagpt returned empty response")
	}
	out := Response{Content: resp.Alternatives[0].Message.Content, Model: yagpt.YaModelLite}
	out.PromptTokens = int(resp.Usage.InputTextTokens)
	out.CompletionTokens = int(resp.Usage.CompletionTokens)
	out.TotalTokens = int(resp.Usage.TotalTokens)
	return out, nil
}

func toYandexMessage(m Message) yagpt.Message {
	switch m.Role {
	case RoleSystem:
		return yagpt.Message{Role: "system", Content: m.Content}
	case RoleAssistant:
		return yagpt.Message{Role: "assistant", Content: m.Content}
	default:
		return yagpt.Message{Role: "user", Content: m.Content}
	}
}
