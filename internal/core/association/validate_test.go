package association

import (
	"testing"

	"recipe-linker/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	input := []Association{
		{Ingredient: " soy sauce ", Step: 1, Text: " the soy sauce ", Amount: StringPtr("  ")},
		{Ingredient: "", Step: 1, Text: "oil"},
		{Ingredient: "salt", Step: 0, Text: "salt"},
		{Ingredient: "pepper", Step: 1, Text: "  "},
		{Ingredient: "sugar", Step: 3, Text: "sugar"},
		{Ingredient: "msg", Step: 2, Text: "msg"},
	}

	accepted, rejected := Reconcile(input, 2)

	assert.Equal(t, 4, rejected)
	require.Len(t, accepted, 2)
	assert.Equal(t, "soy sauce", accepted[0].Ingredient)
	assert.Equal(t, "the soy sauce", accepted[0].Text)
	assert.Nil(t, accepted[0].Amount)
	assert.Equal(t, "msg", accepted[1].Ingredient)
}

func TestReconcileNoSteps(t *testing.T) {
	accepted, rejected := Reconcile([]Association{{Ingredient: "salt", Step: 1, Text: "salt"}}, 0)
	assert.Empty(t, accepted)
	assert.Equal(t, 1, rejected)
}

func TestValidate(t *testing.T) {
	valid := []Association{
		{Ingredient: "salt", Step: 1, Text: "salt", Usage: StringPtr("season")},
		{Ingredient: "pepper", Step: 2, Text: "pepper"},
	}

	out, err := Validate(valid, 2)
	require.NoError(t, err)
	assert.Equal(t, valid, out)
}

func TestValidateRejectsWholeBatch(t *testing.T) {
	_, err := Validate([]Association{
		{Ingredient: "salt", Step: 1, Text: "salt"},
		{Ingredient: "pepper", Step: 5, Text: "pepper"},
	}, 2)

	require.Error(t, err)
	assert.True(t, common.IsValidationError(err))
	assert.Contains(t, err.Error(), "1:")
}

func TestValidateEmptyList(t *testing.T) {
	out, err := Validate(nil, 3)
	require.NoError(t, err)
	assert.Empty(t, out)
}
