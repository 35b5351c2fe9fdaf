package matching

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"recipe-linker/internal/core/recipe"
)

var (
	leadingQuantityRe = regexp.MustCompile(
		`^[\d¼½¾⅓⅔⅛⅜⅝⅞]+([./][\d]+)?\s*(tablespoons?|tbsp|teaspoons?|tsp|cups?|pounds?|lbs?|ounces?|oz|grams?|g|kg|ml)?\s+`)
	leadingMoreRe = regexp.MustCompile(`^more\s+`)
)

// CleanName 清理關聯中的食材名稱：小寫、取第一個逗號前、去掉開頭的數量單位與 "more "
func CleanName(name string) string {
	s := lower(name)
	if idx := strings.Index(s, ","); idx >= 0 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)
	s = leadingQuantityRe.ReplaceAllString(s, "")
	s = leadingMoreRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ResolveName 依列表順序找出第一個名稱相符的食材
//
// 先比對名稱（note 或 display），再比對 display；相等、包含或被包含都算相符。
// 清理後為空字串的名稱永遠不相符。
func ResolveName(name string, ingredients []recipe.Ingredient) (recipe.Ingredient, bool) {
	target := CleanName(name)
	if target == "" {
		return recipe.Ingredient{}, false
	}

	for _, ing := range ingredients {
		for _, candidate := range []string{ing.Name(), ing.Display} {
			cleaned := CleanName(candidate)
			if cleaned == "" {
				continue
			}
			if strings.Contains(cleaned, target) || strings.Contains(target, cleaned) {
				return ing, true
			}
		}
	}
	return recipe.Ingredient{}, false
}

type candidate struct {
	index   int
	variant string
	baseLen int
	exact   bool
}

type span struct {
	start, end int
}

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// FindInText 掃描步驟文字，找出其中提到的食材（結果依食材列表順序）
//
// 所有食材的所有變體一起競爭：較長的變體先比對；相同長度時食材本身的基本名稱優先於衍生變體，
// 其次是基本名稱較長者，最後依列表順序。已被認領的文字區段不會再歸屬給其他食材。
func FindInText(text string, ingredients []recipe.Ingredient) []recipe.Ingredient {
	haystack := lower(text)
	if strings.TrimSpace(haystack) == "" {
		return nil
	}

	var candidates []candidate
	for i, ing := range ingredients {
		variants := NormalizeIngredient(ing)
		if len(variants) == 0 {
			continue
		}
		for j, v := range variants {
			candidates = append(candidates, candidate{index: i, variant: v, baseLen: len(variants[0]), exact: j == 0})
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		ca, cb := candidates[a], candidates[b]
		if len(ca.variant) != len(cb.variant) {
			return len(ca.variant) > len(cb.variant)
		}
		if ca.exact != cb.exact {
			return ca.exact
		}
		if ca.baseLen != cb.baseLen {
			return ca.baseLen > cb.baseLen
		}
		return ca.index < cb.index
	})

	var claimed []span
	matched := make(map[int]bool)
	for _, c := range candidates {
		for _, occ := range wordOccurrences(haystack, c.variant) {
			if overlapsAny(occ, claimed) {
				continue
			}
			claimed = append(claimed, occ)
			matched[c.index] = true
		}
	}

	out := make([]recipe.Ingredient, 0, len(matched))
	for i, ing := range ingredients {
		if matched[i] {
			out = append(out, ing)
		}
	}
	return out
}

func overlapsAny(s span, claimed []span) bool {
	for _, c := range claimed {
		if s.overlaps(c) {
			return true
		}
	}
	return false
}

// wordOccurrences 回傳 needle 在 haystack 中以完整單字出現的所有位置
func wordOccurrences(haystack, needle string) []span {
	if needle == "" {
		return nil
	}
	var out []span
	offset := 0
	for {
		idx := strings.Index(haystack[offset:], needle)
		if idx < 0 {
			return out
		}
		start := offset + idx
		end := start + len(needle)
		if isBoundaryBefore(haystack, start) && isBoundaryAfter(haystack, end) {
			out = append(out, span{start: start, end: end})
		}
		offset = start + 1
		for offset < len(haystack) && !utf8.RuneStart(haystack[offset]) {
			offset++
		}
		if offset >= len(haystack) {
			return out
		}
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isBoundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func isBoundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}
