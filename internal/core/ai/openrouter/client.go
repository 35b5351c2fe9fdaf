package openrouter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"recipe-linker/internal/core/ai/provider"
	"recipe-linker/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultTimeout = 90 * time.Second
)

// Client OpenRouter API 客戶端
type Client struct {
	client *resty.Client
	config provider.Config
}

type chatRequest struct {
	Model          string             `json:"model"`
	Messages       []provider.Message `json:"messages"`
	MaxTokens      int                `json:"max_tokens,omitempty"`
	Temperature    float64            `json:"temperature,omitempty"`
	ResponseFormat *responseFormat    `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message provider.Message `json:"message"`
	} `json:"choices"`
	Usage provider.Usage `json:"usage"`
}

// apiError 表示 API 錯誤
type apiError struct {
	Error struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"`
	} `json:"error"`
}

// NewClient 創建新的 OpenRouter 客戶端
func NewClient(cfg provider.Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("HTTP-Referer", "https://recipe-linker.local").
		SetHeader("X-Title", "Recipe Linker")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	return &Client{client: client, config: cfg}
}

// Generate 呼叫 chat completions 並回傳第一個 choice 的內容
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	body := chatRequest{
		Model:       c.config.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = c.config.MaxTokens
	}
	if body.Temperature == 0 {
		body.Temperature = c.config.Temperature
	}
	if req.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	common.LogDebug("Sending request to OpenRouter",
		zap.String("model", body.Model),
		zap.Int("messages", len(body.Messages)),
		zap.Bool("json_mode", req.JSONMode),
	)

	var result chatResponse
	var failure apiError
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&failure).
		Post("/chat/completions")
	if err != nil {
		common.LogError("Failed to send request to OpenRouter",
			zap.Error(err),
			zap.String("model", body.Model),
		)
		return nil, fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		message := failure.Error.Message
		if message == "" {
			message = common.Snippet(resp.String(), 300)
		}
		common.LogError("OpenRouter returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("model", body.Model),
			zap.String("response", message),
		)
		return nil, fmt.Errorf("OpenRouter error (status %d): %s", resp.StatusCode(), message)
	}

	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		common.LogError("Empty content in OpenRouter response",
			zap.String("model", body.Model),
			zap.String("response", common.Snippet(resp.String(), 300)),
		)
		return nil, provider.ErrEmptyContent
	}

	content := result.Choices[0].Message.Content
	common.LogDebug("Successfully generated response from OpenRouter",
		zap.String("model", body.Model),
		zap.Int("content_length", len(content)),
		zap.Int("usage_total", result.Usage.TotalTokens),
	)

	return &provider.Response{Content: content, Usage: result.Usage}, nil
}

// GetModel 當前模型
func (c *Client) GetModel() string {
	return c.config.Model
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}
