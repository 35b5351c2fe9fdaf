// Package matching 將食材名稱與步驟文字做模糊比對
package matching

import (
	"regexp"
	"strings"
	"unicode"

	"recipe-linker/internal/core/recipe"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	measurementWords = wordSet(
		"cup", "cups", "tablespoon", "tablespoons", "tbsp", "teaspoon", "teaspoons", "tsp",
		"pound", "pounds", "lb", "lbs", "ounce", "ounces", "oz", "gram", "grams", "g",
		"kilogram", "kilograms", "kg", "ml", "milliliter", "milliliters", "liter", "liters",
		"inch", "inches", "piece", "pieces",
	)
	preparationWords = wordSet(
		"diced", "chopped", "sliced", "minced", "crushed", "ground", "grated", "shredded",
		"peeled", "seeded", "cut", "cooked", "frozen", "fresh", "dried", "canned",
	)
	fillerWords = wordSet(
		"and", "or", "with", "without", "for", "the", "a", "an", "into", "in", "such", "as",
		"another", "optional", "to",
	)

	parentheticalRe = regexp.MustCompile(`\([^)]*\)`)
	vulgarFractions = "¼½¾⅓⅔⅛⅜⅝⅞"
)

// lower 每次建立新的 Caser（Caser 不可跨 goroutine 共用）
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func isNumericToken(token string) bool {
	for _, r := range token {
		if !unicode.IsDigit(r) && !strings.ContainsRune(vulgarFractions, r) {
			return false
		}
	}
	return token != ""
}

func isDropped(token string) bool {
	if isNumericToken(token) {
		return true
	}
	if _, ok := measurementWords[token]; ok {
		return true
	}
	if _, ok := preparationWords[token]; ok {
		return true
	}
	_, ok := fillerWords[token]
	return ok
}

// normalizeBase 產生最基本的正規化名稱
func normalizeBase(text string) string {
	text = lower(text)
	text = parentheticalRe.ReplaceAllString(text, " ")

	// 標點一律視為分隔符，"1/2" 會拆成兩個數字再被移除
	fields := strings.FieldsFunc(text, func(r rune) bool {
		if strings.ContainsRune(vulgarFractions, r) {
			return false
		}
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if isDropped(f) {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// Normalize 將顯示文字轉為有序的候選比對字串
//
// 第一個元素是基本形式，之後依序是單複數切換、-o/-oes 切換，以及多字名稱的最後一個字。
// 基本形式為空時回傳 nil。
func Normalize(text string) []string {
	base := normalizeBase(text)
	if base == "" {
		return nil
	}

	variants := []string{base}
	if strings.HasSuffix(base, "s") {
		variants = append(variants, strings.TrimSuffix(base, "s"))
	} else {
		variants = append(variants, base+"s")
	}

	switch {
	case strings.HasSuffix(base, "oes"):
		variants = append(variants, strings.TrimSuffix(base, "es"))
	case strings.HasSuffix(base, "o"):
		variants = append(variants, base+"es")
	}

	if words := strings.Fields(base); len(words) > 1 {
		variants = append(variants, words[len(words)-1])
	}

	return dedupe(variants)
}

// NormalizeIngredient 對食材名稱（note 優先，否則 display）做正規化
func NormalizeIngredient(ing recipe.Ingredient) []string {
	return Normalize(ing.Name())
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
