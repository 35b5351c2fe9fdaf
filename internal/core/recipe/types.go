package recipe

import (
	"fmt"
	"strconv"
	"strings"
)

// Ingredient 食譜中的一項食材
type Ingredient struct {
	ReferenceID string   `json:"reference_id"`
	Display     string   `json:"display"`
	Note        string   `json:"note,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty"`
	Unit        string   `json:"unit,omitempty"`
}

// Name 食材名稱：note 非空時優先，否則為 display
func (i Ingredient) Name() string {
	if strings.TrimSpace(i.Note) != "" {
		return i.Note
	}
	return i.Display
}

// Description 給生成服務的描述：display 優先，否則為 note
func (i Ingredient) Description() string {
	if strings.TrimSpace(i.Display) != "" {
		return i.Display
	}
	return i.Note
}

// Amount 份量文字，例如 "0.25 cup"；沒有數量時回傳空字串
func (i Ingredient) Amount() string {
	if i.Quantity == nil || *i.Quantity == 0 {
		return ""
	}
	q := strconv.FormatFloat(*i.Quantity, 'f', -1, 64)
	return strings.TrimSpace(q + " " + i.Unit)
}

// Step 食譜步驟（Index 從 0 開始）
type Step struct {
	Index int    `json:"index"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
}

// StepNumber 對外顯示用的步驟編號（從 1 開始）
func (s Step) StepNumber() int {
	return s.Index + 1
}

// Recipe 從食譜來源取得的食譜
type Recipe struct {
	ID          string       `json:"id"`
	Slug        string       `json:"slug"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []Step       `json:"steps"`
}

// Summary 食譜列表項目
type Summary struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// EnsureReferenceIDs 為缺少 reference id 的食材補上 "ingredient-{index}"，
// 重複的 id 也會被替換；補上的 id 不會與既有 id 衝突，確保同一食譜內唯一
func EnsureReferenceIDs(ingredients []Ingredient) []Ingredient {
	out := make([]Ingredient, len(ingredients))
	seen := make(map[string]bool, len(ingredients))
	var missing []int
	for i, ing := range ingredients {
		id := strings.TrimSpace(ing.ReferenceID)
		if id == "" || seen[id] {
			missing = append(missing, i)
		} else {
			seen[id] = true
		}
		ing.ReferenceID = id
		out[i] = ing
	}

	for _, i := range missing {
		id := fmt.Sprintf("ingredient-%d", i)
		for n := 1; seen[id]; n++ {
			id = fmt.Sprintf("ingredient-%d-%d", i, n)
		}
		seen[id] = true
		out[i].ReferenceID = id
	}
	return out
}

// IndexSteps 依照列表順序重新編排步驟 Index
func IndexSteps(steps []Step) []Step {
	out := make([]Step, len(steps))
	for i, step := range steps {
		step.Index = i
		out[i] = step
	}
	return out
}
