package source

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"recipe-linker/internal/infrastructure/config"
	"recipe-linker/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.RecipeSourceConfig{BaseURL: srv.URL, APIKey: "secret"})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(config.RecipeSourceConfig{})
	assert.Error(t, err)
}

func TestGetRecipe(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/recipes/beef-stir-fry", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "r1",
			"slug": "beef-stir-fry",
			"name": "Beef Stir Fry",
			"recipeIngredient": [
				{"referenceId": "ing-1", "display": "1 lb flank steak", "note": "flank steak", "quantity": 1, "unit": {"name": "pound"}},
				{"display": "soy sauce", "note": ""}
			],
			"recipeInstructions": [
				{"title": "Prep", "text": "Slice the steak."},
				{"text": "Add the soy sauce."}
			]
		}`))
	})

	got, err := client.GetRecipe(t.Context(), "beef-stir-fry")
	require.NoError(t, err)

	assert.Equal(t, "r1", got.ID)
	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, "ing-1", got.Ingredients[0].ReferenceID)
	assert.Equal(t, "pound", got.Ingredients[0].Unit)
	require.NotNil(t, got.Ingredients[0].Quantity)
	assert.Equal(t, 1.0, *got.Ingredients[0].Quantity)
	assert.Equal(t, "ingredient-1", got.Ingredients[1].ReferenceID)
	assert.Equal(t, "soy sauce", got.Ingredients[1].Name())

	require.Len(t, got.Steps, 2)
	assert.Equal(t, "Prep", got.Steps[0].Title)
	assert.Equal(t, 2, got.Steps[1].StepNumber())
}

func TestGetRecipeNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetRecipe(t.Context(), "missing")
	require.Error(t, err)

	var customErr *common.CustomError
	require.True(t, errors.As(err, &customErr))
	assert.Equal(t, http.StatusNotFound, customErr.Status)
}

func TestGetRecipeUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})

	_, err := client.GetRecipe(t.Context(), "any")
	var customErr *common.CustomError
	require.True(t, errors.As(err, &customErr))
	assert.Equal(t, common.ErrCodeUpstreamError, customErr.Code)
}

func TestListRecipes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/recipes", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": [{"id": "r1", "slug": "a", "name": "A"}, {"id": "r2", "slug": "b", "name": "B"}]}`))
	})

	got, err := client.ListRecipes(t.Context())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1].Slug)
}

func TestListRecipesFollowsPages(t *testing.T) {
	var pages []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		w.Header().Set("Content-Type", "application/json")
		switch page {
		case "1":
			_, _ = w.Write([]byte(`{"page": 1, "total_pages": 2, "items": [{"id": "r1", "slug": "a", "name": "A"}]}`))
		default:
			_, _ = w.Write([]byte(`{"page": 2, "total_pages": 2, "items": [{"id": "r2", "slug": "b", "name": "B"}]}`))
		}
	})

	got, err := client.ListRecipes(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, pages)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Slug)
	assert.Equal(t, "b", got[1].Slug)
}

func TestListRecipesStopsOnPageError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"page": 1, "total_pages": 3, "items": [{"id": "r1", "slug": "a", "name": "A"}]}`))
	})

	_, err := client.ListRecipes(t.Context())
	var customErr *common.CustomError
	require.ErrorAs(t, err, &customErr)
	assert.Equal(t, common.ErrCodeUpstreamError, customErr.Code)
}
