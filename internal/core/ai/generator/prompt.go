package generator

import (
	"fmt"

	"recipe-linker/internal/core/recipe"
	"recipe-linker/internal/pkg/common"
)

const systemPrompt = "You analyze recipe ingredients and instruction steps and link each ingredient to the steps that use it. " +
	"Always answer with a single JSON object containing an \"associations\" array."

type promptIngredient struct {
	Name        string `json:"name"`
	Amount      string `json:"amount,omitempty"`
	Description string `json:"description,omitempty"`
}

type promptStep struct {
	Description string `json:"description"`
}

func buildPrompt(ingredients []recipe.Ingredient, steps []recipe.Step) (string, error) {
	ingredientData := make([]promptIngredient, 0, len(ingredients))
	for _, ing := range ingredients {
		ingredientData = append(ingredientData, promptIngredient{
			Name:        ing.Name(),
			Amount:      ing.Amount(),
			Description: ing.Description(),
		})
	}
	stepData := make([]promptStep, 0, len(steps))
	for _, step := range steps {
		stepData = append(stepData, promptStep{Description: step.Text})
	}

	ingredientJSON, err := common.ToIndentedJSON(ingredientData)
	if err != nil {
		return "", err
	}
	stepJSON, err := common.ToIndentedJSON(stepData)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`Link the ingredients below to the numbered steps where they are used.

Ingredients:
%s

Steps (numbered from 1 in the order listed):
%s

Return JSON in exactly this shape:
{
  "associations": [
    {
      "ingredient": "ingredient name exactly as listed",
      "amount": "amount used in this step, if the step states one",
      "step": 1,
      "text": "the shortest phrase in the step that refers to the ingredient"
    }
  ]
}

Rules:
- "step" is the 1-based position of the step in the list above.
- "text" must be copied verbatim from the step and name only the ingredient itself.
  For "add the sliced steak and cornstarch" with ingredient "steak", text is "steak", not "sliced steak and cornstarch".
- An ingredient used in several steps gets one entry per step.
- Skip ingredients that no step mentions.
- Do not invent ingredients or steps.`, ingredientJSON, stepJSON), nil
}
