package openai

import (
	"context"
	"fmt"
	"strings"

	"recipe-linker/internal/core/ai/provider"
	"recipe-linker/internal/pkg/common"

	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

const defaultModel = "gpt-4o-mini"

// Client 直接呼叫 OpenAI 的提供者
type Client struct {
	client sdk.Client
	config provider.Config
}

// NewClient 創建 OpenAI 客戶端
func NewClient(cfg provider.Config) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	return &Client{client: sdk.NewClient(opts...), config: cfg}
}

// Generate 呼叫 chat completions
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	messages := make([]sdk.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			messages = append(messages, sdk.SystemMessage(m.Content))
		case "assistant":
			messages = append(messages, sdk.AssistantMessage(m.Content))
		default:
			messages = append(messages, sdk.UserMessage(m.Content))
		}
	}

	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(c.config.Model),
		Messages: messages,
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.config.Temperature
	}
	if temperature > 0 {
		params.Temperature = sdk.Float(temperature)
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}
	if maxTokens > 0 {
		params.MaxCompletionTokens = sdk.Int(int64(maxTokens))
	}
	if req.JSONMode {
		params.ResponseFormat = sdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &sdk.ResponseFormatJSONObjectParam{},
		}
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		common.LogError("OpenAI request failed",
			zap.Error(err),
			zap.String("model", c.config.Model),
		)
		return nil, fmt.Errorf("openai chat completion failed: %w", err)
	}

	if len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
		return nil, provider.ErrEmptyContent
	}

	usage := provider.Usage{
		PromptTokens:     int(completion.Usage.PromptTokens),
		CompletionTokens: int(completion.Usage.CompletionTokens),
		TotalTokens:      int(completion.Usage.TotalTokens),
	}
	common.LogDebug("OpenAI chat completed",
		zap.String("model", c.config.Model),
		zap.Int("usage_total", usage.TotalTokens),
	)

	return &provider.Response{Content: completion.Choices[0].Message.Content, Usage: usage}, nil
}

// GetModel 當前模型
func (c *Client) GetModel() string {
	return c.config.Model
}

// Close OpenAI SDK 不需要釋放資源
func (c *Client) Close() error {
	return nil
}
