package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func sampleRecipe() ([]Ingredient, []Step) {
	ingredients := []Ingredient{
		{ReferenceID: "a", Display: "2 cups flour", Note: "flour", Quantity: floatPtr(2), Unit: "cup"},
		{ReferenceID: "b", Display: "1 tsp salt", Note: "salt", Quantity: floatPtr(1), Unit: "teaspoon"},
	}
	steps := []Step{
		{Index: 0, Text: "Whisk the flour and salt."},
		{Index: 1, Text: "Bake for 20 minutes."},
	}
	return ingredients, steps
}

func TestHashDeterministic(t *testing.T) {
	ingredients, steps := sampleRecipe()

	first := Hash(ingredients, steps)
	second := Hash(ingredients, steps)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", first)
}

func TestHashIgnoresNonContentFields(t *testing.T) {
	ingredients, steps := sampleRecipe()
	base := Hash(ingredients, steps)

	changed := append([]Ingredient(nil), ingredients...)
	changed[0].ReferenceID = "other-id"
	steps2 := append([]Step(nil), steps...)
	steps2[0].Title = "Prep"

	assert.Equal(t, base, Hash(changed, steps2))
}

func TestHashSensitivity(t *testing.T) {
	ingredients, steps := sampleRecipe()
	base := Hash(ingredients, steps)

	tests := []struct {
		name   string
		mutate func(ings []Ingredient, sts []Step) ([]Ingredient, []Step)
	}{
		{
			name: "step text",
			mutate: func(ings []Ingredient, sts []Step) ([]Ingredient, []Step) {
				sts[1].Text = "Bake for 25 minutes."
				return ings, sts
			},
		},
		{
			name: "quantity",
			mutate: func(ings []Ingredient, sts []Step) ([]Ingredient, []Step) {
				ings[0].Quantity = floatPtr(3)
				return ings, sts
			},
		},
		{
			name: "quantity removed",
			mutate: func(ings []Ingredient, sts []Step) ([]Ingredient, []Step) {
				ings[0].Quantity = nil
				return ings, sts
			},
		},
		{
			name: "unit",
			mutate: func(ings []Ingredient, sts []Step) ([]Ingredient, []Step) {
				ings[1].Unit = "tablespoon"
				return ings, sts
			},
		},
		{
			name: "name",
			mutate: func(ings []Ingredient, sts []Step) ([]Ingredient, []Step) {
				ings[1].Note = "kosher salt"
				return ings, sts
			},
		},
		{
			name: "display text with same note",
			mutate: func(ings []Ingredient, sts []Step) ([]Ingredient, []Step) {
				ings[0].Display = "2 cups bread flour"
				return ings, sts
			},
		},
		{
			name: "order",
			mutate: func(ings []Ingredient, sts []Step) ([]Ingredient, []Step) {
				ings[0], ings[1] = ings[1], ings[0]
				return ings, sts
			},
		},
		{
			name: "step added",
			mutate: func(ings []Ingredient, sts []Step) ([]Ingredient, []Step) {
				return ings, append(sts, Step{Index: 2, Text: "Cool."})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ings, sts := sampleRecipe()
			ings, sts = tt.mutate(ings, sts)
			assert.NotEqual(t, base, Hash(ings, sts))
		})
	}
}

func TestHashEmptyRecipe(t *testing.T) {
	assert.Equal(t, Hash(nil, nil), Hash([]Ingredient{}, []Step{}))
}

func TestIngredientName(t *testing.T) {
	assert.Equal(t, "flour", Ingredient{Display: "2 cups flour", Note: "flour"}.Name())
	assert.Equal(t, "2 cups flour", Ingredient{Display: "2 cups flour"}.Name())
	assert.Equal(t, "2 cups flour", Ingredient{Display: "2 cups flour", Note: "  "}.Name())
}

func TestIngredientAmount(t *testing.T) {
	assert.Equal(t, "0.25 cup", Ingredient{Quantity: floatPtr(0.25), Unit: "cup"}.Amount())
	assert.Equal(t, "2", Ingredient{Quantity: floatPtr(2)}.Amount())
	assert.Empty(t, Ingredient{Unit: "cup"}.Amount())
}

func TestEnsureReferenceIDs(t *testing.T) {
	out := EnsureReferenceIDs([]Ingredient{
		{ReferenceID: "x", Display: "a"},
		{Display: "b"},
		{ReferenceID: "x", Display: "c"},
	})

	require.Len(t, out, 3)
	assert.Equal(t, "x", out[0].ReferenceID)
	assert.Equal(t, "ingredient-1", out[1].ReferenceID)
	assert.Equal(t, "ingredient-2", out[2].ReferenceID)
}

func TestEnsureReferenceIDsAvoidsExplicitIDs(t *testing.T) {
	out := EnsureReferenceIDs([]Ingredient{
		{ReferenceID: "ingredient-1", Display: "salt"},
		{Display: "pepper"},
		{Display: "oil"},
		{ReferenceID: "ingredient-2", Display: "garlic"},
	})

	require.Len(t, out, 4)
	assert.Equal(t, "ingredient-1", out[0].ReferenceID)
	assert.Equal(t, "ingredient-1-1", out[1].ReferenceID)
	assert.Equal(t, "ingredient-2-1", out[2].ReferenceID)
	assert.Equal(t, "ingredient-2", out[3].ReferenceID)

	ids := make(map[string]bool)
	for _, ing := range out {
		assert.False(t, ids[ing.ReferenceID], "duplicate id %s", ing.ReferenceID)
		ids[ing.ReferenceID] = true
	}
}

func TestHashDisplayOnlyChange(t *testing.T) {
	soy := []Ingredient{{Display: "2 tbsp soy sauce", Note: "low sodium"}}
	tamari := []Ingredient{{Display: "2 tbsp tamari", Note: "low sodium"}}
	steps := []Step{{Text: "Whisk in the sauce."}}

	assert.NotEqual(t, Hash(soy, steps), Hash(tamari, steps))
}

func TestIndexSteps(t *testing.T) {
	out := IndexSteps([]Step{{Index: 7, Text: "a"}, {Index: 3, Text: "b"}})
	require.Len(t, out, 2)
	assert.Equal(t, 1, out[0].StepNumber())
	assert.Equal(t, 2, out[1].StepNumber())
}
