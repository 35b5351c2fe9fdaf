package association

import (
	"sort"
	"strconv"

	"recipe-linker/internal/core/matching"
	"recipe-linker/internal/core/recipe"
)

// Mapping 步驟與食材的雙向索引
type Mapping struct {
	stepToIngredients map[int]map[string]struct{}
	ingredientToSteps map[string]map[int]struct{}
	unresolved        int
}

// MappingView Mapping 的 JSON 表示
type MappingView struct {
	StepToIngredients map[string][]string `json:"step_to_ingredients"`
	IngredientToSteps map[string][]int    `json:"ingredient_to_steps"`
	Unresolved        int                 `json:"unresolved"`
}

// BuildMapping 依關聯建立雙向索引；找不到對應食材的關聯直接略過
func BuildMapping(ingredients []recipe.Ingredient, associations []Association) *Mapping {
	m := &Mapping{
		stepToIngredients: make(map[int]map[string]struct{}),
		ingredientToSteps: make(map[string]map[int]struct{}),
	}

	for _, a := range associations {
		ing, ok := matching.ResolveName(a.Ingredient, ingredients)
		if !ok || ing.ReferenceID == "" {
			m.unresolved++
			continue
		}
		m.add(a.Step, ing.ReferenceID)
	}
	return m
}

func (m *Mapping) add(step int, id string) {
	if m.stepToIngredients[step] == nil {
		m.stepToIngredients[step] = make(map[string]struct{})
	}
	m.stepToIngredients[step][id] = struct{}{}

	if m.ingredientToSteps[id] == nil {
		m.ingredientToSteps[id] = make(map[int]struct{})
	}
	m.ingredientToSteps[id][step] = struct{}{}
}

// IngredientsForStep 某步驟用到的食材 id（排序後）
func (m *Mapping) IngredientsForStep(step int) []string {
	set := m.stepToIngredients[step]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// StepsForIngredient 某食材出現的步驟（遞增）
func (m *Mapping) StepsForIngredient(id string) []int {
	set := m.ingredientToSteps[id]
	out := make([]int, 0, len(set))
	for step := range set {
		out = append(out, step)
	}
	sort.Ints(out)
	return out
}

// Contains 某食材是否出現在某步驟
func (m *Mapping) Contains(step int, id string) bool {
	_, ok := m.stepToIngredients[step][id]
	return ok
}

// Unresolved 無法對應到食材的關聯數
func (m *Mapping) Unresolved() int {
	return m.unresolved
}

// View 轉為可序列化的結構
func (m *Mapping) View() MappingView {
	view := MappingView{
		StepToIngredients: make(map[string][]string, len(m.stepToIngredients)),
		IngredientToSteps: make(map[string][]int, len(m.ingredientToSteps)),
		Unresolved:        m.unresolved,
	}
	for step := range m.stepToIngredients {
		view.StepToIngredients[strconv.Itoa(step)] = m.IngredientsForStep(step)
	}
	for id := range m.ingredientToSteps {
		view.IngredientToSteps[id] = m.StepsForIngredient(id)
	}
	return view
}
