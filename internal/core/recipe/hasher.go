package recipe

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

type hashIngredient struct {
	Name        string   `json:"name"`
	Quantity    *float64 `json:"quantity"`
	Unit        string   `json:"unit"`
	Description string   `json:"description"`
}

type hashStep struct {
	Text string `json:"text"`
}

type hashDocument struct {
	Ingredients []hashIngredient `json:"ingredients"`
	Steps       []hashStep       `json:"steps"`
}

// Hash 計算食譜內容指紋（SHA-256 小寫 hex）
//
// 只有食材名稱、數量、單位、描述與步驟文字會影響結果，順序也是指紋的一部分。
func Hash(ingredients []Ingredient, steps []Step) string {
	doc := hashDocument{
		Ingredients: make([]hashIngredient, 0, len(ingredients)),
		Steps:       make([]hashStep, 0, len(steps)),
	}
	for _, ing := range ingredients {
		doc.Ingredients = append(doc.Ingredients, hashIngredient{
			Name:        ing.Name(),
			Quantity:    ing.Quantity,
			Unit:        ing.Unit,
			Description: ing.Description(),
		})
	}
	for _, step := range steps {
		doc.Steps = append(doc.Steps, hashStep{Text: step.Text})
	}

	// 結構固定且只含基本型別，Marshal 不會失敗
	data, _ := json.Marshal(doc)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
