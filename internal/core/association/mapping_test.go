package association

import (
	"testing"

	"recipe-linker/internal/core/recipe"

	"github.com/stretchr/testify/assert"
)

func soyRecipe() ([]recipe.Ingredient, []recipe.Step) {
	qty := 2.0
	return []recipe.Ingredient{
			{ReferenceID: "soy-ref", Display: "2 tbsp soy sauce", Note: "soy sauce", Quantity: &qty, Unit: "tablespoon"},
		}, []recipe.Step{
			{Index: 0, Text: "whisk in the soy sauce"},
		}
}

func TestBuildMappingSoySauce(t *testing.T) {
	ingredients, _ := soyRecipe()
	m := BuildMapping(ingredients, []Association{
		{Ingredient: "soy sauce", Step: 1, Text: "the soy sauce"},
	})

	assert.Equal(t, []string{"soy-ref"}, m.IngredientsForStep(1))
	assert.Equal(t, []int{1}, m.StepsForIngredient("soy-ref"))
	assert.True(t, m.Contains(1, "soy-ref"))
	assert.Zero(t, m.Unresolved())
}

func TestBuildMappingExcludesUnresolved(t *testing.T) {
	ingredients, _ := soyRecipe()
	m := BuildMapping(ingredients, []Association{
		{Ingredient: "soy sauce", Step: 1, Text: "the soy sauce"},
		{Ingredient: "msg", Step: 1, Text: "msg"},
	})

	assert.Equal(t, []string{"soy-ref"}, m.IngredientsForStep(1))
	assert.Empty(t, m.StepsForIngredient("msg"))
	assert.Equal(t, 1, m.Unresolved())
}

func TestBuildMappingSymmetric(t *testing.T) {
	ingredients := []recipe.Ingredient{
		{ReferenceID: "oil", Display: "canola oil"},
		{ReferenceID: "garlic", Display: "garlic, minced"},
		{ReferenceID: "rice", Display: "cooked rice"},
	}
	associations := []Association{
		{Ingredient: "canola oil", Step: 1, Text: "oil"},
		{Ingredient: "garlic", Step: 1, Text: "garlic"},
		{Ingredient: "garlic", Step: 3, Text: "the garlic"},
		{Ingredient: "canola oil", Step: 3, Text: "more oil"},
		{Ingredient: "canola oil", Step: 3, Text: "oil"},
	}
	m := BuildMapping(ingredients, associations)

	for step, ids := range m.stepToIngredients {
		for id := range ids {
			assert.Contains(t, m.StepsForIngredient(id), step)
		}
	}
	for id, steps := range m.ingredientToSteps {
		for step := range steps {
			assert.Contains(t, m.IngredientsForStep(step), id)
		}
	}

	assert.Equal(t, []string{"garlic", "oil"}, m.IngredientsForStep(1))
	assert.Equal(t, []int{1, 3}, m.StepsForIngredient("oil"))
	assert.Empty(t, m.StepsForIngredient("rice"))
	assert.Empty(t, m.IngredientsForStep(2))
}

func TestMappingView(t *testing.T) {
	ingredients, _ := soyRecipe()
	m := BuildMapping(ingredients, []Association{
		{Ingredient: "soy sauce", Step: 1, Text: "the soy sauce"},
		{Ingredient: "msg", Step: 1, Text: "msg"},
	})

	view := m.View()
	assert.Equal(t, map[string][]string{"1": {"soy-ref"}}, view.StepToIngredients)
	assert.Equal(t, map[string][]int{"soy-ref": {1}}, view.IngredientToSteps)
	assert.Equal(t, 1, view.Unresolved)
}

func TestEmptyMapping(t *testing.T) {
	m := BuildMapping(nil, nil)
	assert.Empty(t, m.IngredientsForStep(1))
	assert.Empty(t, m.StepsForIngredient("x"))
	assert.False(t, m.Contains(1, "x"))
	assert.Empty(t, m.View().StepToIngredients)
}
