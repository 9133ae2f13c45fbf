// Package llm is the chat-model boundary, built on the Eino framework.
package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/dslh/mcp-agent/internal/config"
)

// Client wraps a chat model behind a single text-in/text-out call.
type Client struct {
	chatModel   model.ToolCallingChatModel
	temperature float32
}

// New creates a chat-model client from the LLM configuration. The API key
// comes from the OPENAI_API_KEY environment variable.
func New(ctx context.Context, cfg config.LLMConfig) (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	modelCfg := &openai.ChatModelConfig{
		APIKey: apiKey,
		Model:  cfg.Model,
	}
	if cfg.BaseURL != "" {
		modelCfg.BaseURL = cfg.BaseURL
	}
	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		modelCfg.MaxCompletionTokens = &maxTokens
	}

	chatModel, err := openai.NewChatModel(ctx, modelCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	var temperature float32
	if cfg.Temperature != nil {
		temperature = float32(*cfg.Temperature)
	}

	return &Client{
		chatModel:   chatModel,
		temperature: temperature,
	}, nil
}

// Invoke sends the message sequence to the model and returns the response
// text.
func (c *Client) Invoke(ctx context.Context, messages []*schema.Message) (string, error) {
	var opts []model.Option
	if c.temperature > 0 {
		opts = append(opts, model.WithTemperature(c.temperature))
	}

	response, err := c.chatModel.Generate(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	return response.Content, nil
}
