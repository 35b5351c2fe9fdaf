package common

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONBytes(t *testing.T) {
	var out map[string]interface{}
	require.NoError(t, ParseJSONBytes([]byte(`{"step": 2}`), &out))
	assert.Equal(t, json.Number("2"), out["step"])

	assert.Error(t, ParseJSONBytes([]byte(`{"step": 2} {"step": 3}`), &out))
	assert.Error(t, ParseJSONBytes([]byte(`{"step":`), &out))
}

func TestToJSONRoundTrip(t *testing.T) {
	type entry struct {
		RecipeID string `json:"recipe_id"`
		Count    int    `json:"count"`
	}

	data, err := ToJSON(entry{RecipeID: "r-1", Count: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"recipe_id":"r-1","count":3}`, data)

	var back entry
	require.NoError(t, ParseJSON(data, &back))
	assert.Equal(t, entry{RecipeID: "r-1", Count: 3}, back)
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a":1}`, ExtractJSONObject("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, ExtractJSONObject(`Here you go: {"a":1} thanks`))
}
