package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// OpenAIClient calls the OpenAI Chat Completions API through the official
// SDK for single-shot completions.
type OpenAIClient struct {
	client openai.Client
	opts   ChatOptions
}

// NewOpenAIClient creates an OpenAI chat client. baseURL overrides the API
// endpoint when non-empty (for OpenAI-compatible servers).
func NewOpenAIClient(apiKey, baseURL string, opts ChatOptions) *OpenAIClient {
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{
		client: openai.NewClient(reqOpts...),
		opts:   opts,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	start := time.Now()
	text, err := c.complete(ctx, systemPrompt, userPrompt)
	observeLLM(start, err)
	return text, err
}

func (c *OpenAIClient) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.opts.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		MaxTokens:   openai.Int(int64(c.opts.MaxTokens)),
		Temperature: openai.Float(c.opts.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
