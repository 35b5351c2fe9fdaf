// Package generator 透過 LLM 產生食材與步驟的關聯
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"recipe-linker/internal/core/ai/openai"
	"recipe-linker/internal/core/ai/openrouter"
	"recipe-linker/internal/core/ai/provider"
	"recipe-linker/internal/core/association"
	"recipe-linker/internal/core/recipe"
	"recipe-linker/internal/infrastructure/config"
	"recipe-linker/internal/pkg/common"

	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"
)

var _ association.Generator = (*Generator)(nil)

// Generator 實作 association.Generator
type Generator struct {
	provider    provider.Provider
	configured  bool
	maxTokens   int
	temperature float64
}

// New 以指定 provider 建立生成器；apiKey 為空時視為未設定
func New(p provider.Provider, apiKey string, maxTokens int, temperature float64) *Generator {
	return &Generator{
		provider:    p,
		configured:  p != nil && strings.TrimSpace(apiKey) != "",
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// NewFromConfig 依設定選擇 openrouter 或 openai
func NewFromConfig(cfg config.GeneratorConfig) (*Generator, error) {
	pcfg := provider.FromGeneratorConfig(cfg)

	var p provider.Provider
	switch cfg.Provider {
	case "openai":
		p = openai.NewClient(pcfg)
	case "openrouter", "":
		p = openrouter.NewClient(pcfg)
	default:
		return nil, fmt.Errorf("unsupported generator provider: %s", cfg.Provider)
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		common.LogWarn("關聯生成器未設定 API key，生成功能停用",
			zap.String("provider", cfg.Provider),
		)
	} else {
		common.LogInfo("關聯生成器已初始化",
			zap.String("provider", cfg.Provider),
			zap.String("model", p.GetModel()),
			zap.String("key", common.MaskSecret(cfg.APIKey)),
		)
	}

	return New(p, cfg.APIKey, cfg.MaxTokens, cfg.Temperature), nil
}

// Configured 是否可呼叫
func (g *Generator) Configured() bool {
	return g != nil && g.configured
}

// Close 釋放 provider
func (g *Generator) Close() error {
	if g == nil || g.provider == nil {
		return nil
	}
	return g.provider.Close()
}

// Generate 呼叫模型並解析關聯
func (g *Generator) Generate(ctx context.Context, ingredients []recipe.Ingredient, steps []recipe.Step) ([]association.Association, error) {
	if !g.Configured() {
		return nil, &association.ConfigurationError{Reason: "missing api key or provider"}
	}

	prompt, err := buildPrompt(ingredients, steps)
	if err != nil {
		return nil, &association.GenerationError{Reason: "failed to build prompt", Err: err}
	}

	resp, err := g.provider.Generate(ctx, &provider.Request{
		Messages: []provider.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		JSONMode:    true,
	})
	if err != nil {
		return nil, &association.GenerationError{Reason: "provider request failed", Err: err}
	}

	associations, err := ParseAssociations(resp.Content)
	if err != nil {
		common.LogWarn("無法解析關聯回應",
			zap.Error(err),
			zap.String("model", g.provider.GetModel()),
			zap.String("content", common.Snippet(resp.Content, 300)),
		)
		return nil, err
	}
	return associations, nil
}

type rawAssociation struct {
	Ingredient string      `json:"ingredient"`
	Amount     interface{} `json:"amount"`
	Step       interface{} `json:"step"`
	Text       string      `json:"text"`
	Usage      interface{} `json:"usage"`
}

type rawPayload struct {
	Associations *[]rawAssociation `json:"associations"`
}

// ParseAssociations 解析模型回應；格式錯誤時先嘗試修復 JSON
//
// 缺少 associations 陣列、內容為空或無法解析都會回傳 GenerationError。
// 額外欄位會被忽略，欄位內容是否完整由呼叫端驗證。
func ParseAssociations(content string) ([]association.Association, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &association.GenerationError{Reason: "empty content"}
	}

	extracted := common.ExtractJSONObject(content)
	var payload rawPayload
	if err := common.ParseJSON(extracted, &payload); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(extracted)
		if repairErr != nil {
			return nil, &association.GenerationError{Reason: "malformed payload", Err: err}
		}
		payload = rawPayload{}
		if err := common.ParseJSON(repaired, &payload); err != nil {
			return nil, &association.GenerationError{Reason: "malformed payload", Err: err}
		}
		common.LogDebug("已修復關聯回應 JSON", zap.Int("length", len(repaired)))
	}

	if payload.Associations == nil {
		return nil, &association.GenerationError{Reason: "missing associations array"}
	}

	out := make([]association.Association, 0, len(*payload.Associations))
	for _, raw := range *payload.Associations {
		out = append(out, association.Association{
			Ingredient: raw.Ingredient,
			Amount:     association.StringPtr(stringify(raw.Amount)),
			Step:       toStep(raw.Step),
			Text:       raw.Text,
			Usage:      association.StringPtr(stringify(raw.Usage)),
		})
	}
	return out, nil
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// toStep 接受數字或數字字串，無法轉換時回傳 0（之後會被驗證丟棄）
func toStep(v interface{}) int {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return int(n)
		}
		if f, err := val.Float64(); err == nil && f == math.Trunc(f) {
			return int(f)
		}
	case float64:
		if val == math.Trunc(val) {
			return int(val)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return n
		}
	}
	return 0
}
