// Package association 管理食材與步驟的關聯：快取、驗證、雙向索引與生成流程
package association

import (
	"context"
	"time"

	"recipe-linker/internal/core/recipe"
)

// Association 一筆「食材出現在第幾步」的關聯紀錄
type Association struct {
	Ingredient string  `json:"ingredient"`
	Amount     *string `json:"amount,omitempty"`
	Step       int     `json:"step"`
	Text       string  `json:"text"`
	Usage      *string `json:"usage,omitempty"`
}

// Status 快取狀態
type Status string

const (
	StatusValid    Status = "valid"
	StatusOutdated Status = "outdated"
	StatusNone     Status = "none"
)

// Entry 一份食譜的關聯快取
type Entry struct {
	RecipeID     string        `json:"recipe_id"`
	RecipeHash   string        `json:"recipe_hash"`
	Associations []Association `json:"associations"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Lookup Store.Get 的查詢結果
type Lookup struct {
	Status       Status
	Associations []Association
}

// Result 對外回傳的關聯結果
type Result struct {
	Status            Status        `json:"status"`
	Associations      []Association `json:"associations"`
	StaleAssociations []Association `json:"stale_associations,omitempty"`
	RecipeHash        string        `json:"recipe_hash"`
	Unresolved        int           `json:"unresolved"`

	mapping *Mapping
}

// Mapping 結果關聯的雙向索引
func (r *Result) Mapping() *Mapping {
	if r == nil || r.mapping == nil {
		return BuildMapping(nil, nil)
	}
	return r.mapping
}

// Store 關聯儲存介面
type Store interface {
	// Get 依 hash 判斷快取狀態：無資料 none、hash 不符 outdated、相符 valid
	Get(ctx context.Context, recipeID, hash string) (Lookup, error)
	// Load 讀取原始快取，不存在時回傳 nil
	Load(ctx context.Context, recipeID string) (*Entry, error)
	// Save 以單一交易取代整份關聯
	Save(ctx context.Context, recipeID, hash string, associations []Association) error
	// Clear 移除關聯，不存在時不算錯誤
	Clear(ctx context.Context, recipeID string) error
	Close() error
}

// Pinger 可檢查連線狀態的儲存後端
type Pinger interface {
	Ping(ctx context.Context) error
}

// Generator 關聯生成器（通常是 LLM）
type Generator interface {
	Generate(ctx context.Context, ingredients []recipe.Ingredient, steps []recipe.Step) ([]Association, error)
}

// StringPtr 空字串回傳 nil
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// LookupFromEntry 依 hash 將快取轉為查詢結果，供各儲存後端共用
func LookupFromEntry(entry *Entry, hash string) Lookup {
	switch {
	case entry == nil:
		return Lookup{Status: StatusNone, Associations: []Association{}}
	case entry.RecipeHash != hash:
		return Lookup{Status: StatusOutdated, Associations: []Association{}}
	default:
		associations := entry.Associations
		if associations == nil {
			associations = []Association{}
		}
		return Lookup{Status: StatusValid, Associations: associations}
	}
}

