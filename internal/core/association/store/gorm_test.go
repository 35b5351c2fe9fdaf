package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"recipe-linker/internal/core/association"
	"recipe-linker/internal/infrastructure/config"
	"recipe-linker/internal/infrastructure/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "associations.db"),
	}, false)
	require.NoError(t, err)

	s := NewGormStore(db)
	require.NoError(t, s.Init(t.Context()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleAssociations() []association.Association {
	return []association.Association{
		{Ingredient: "soy sauce", Amount: association.StringPtr("2 tbsp"), Step: 1, Text: "the soy sauce"},
		{Ingredient: "steak", Step: 2, Text: "steak", Usage: association.StringPtr("sear")},
		{Ingredient: "msg", Step: 2, Text: "msg"},
	}
}

func TestGormStoreNone(t *testing.T) {
	s := createTestStore(t)

	lookup, err := s.Get(t.Context(), "recipe-1", "hash-a")
	require.NoError(t, err)
	assert.Equal(t, association.StatusNone, lookup.Status)
	assert.Empty(t, lookup.Associations)

	entry, err := s.Load(t.Context(), "recipe-1")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestGormStoreRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.Save(ctx, "recipe-1", "hash-a", sampleAssociations()))

	lookup, err := s.Get(ctx, "recipe-1", "hash-a")
	require.NoError(t, err)
	assert.Equal(t, association.StatusValid, lookup.Status)
	assert.Equal(t, sampleAssociations(), lookup.Associations)
}

func TestGormStoreEmptyRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.Save(ctx, "recipe-1", "hash-a", nil))

	lookup, err := s.Get(ctx, "recipe-1", "hash-a")
	require.NoError(t, err)
	assert.Equal(t, association.StatusValid, lookup.Status)
	assert.NotNil(t, lookup.Associations)
	assert.Empty(t, lookup.Associations)
}

func TestGormStoreOutdated(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.Save(ctx, "recipe-1", "hash-a", sampleAssociations()))

	lookup, err := s.Get(ctx, "recipe-1", "hash-b")
	require.NoError(t, err)
	assert.Equal(t, association.StatusOutdated, lookup.Status)
	assert.Empty(t, lookup.Associations)

	entry, err := s.Load(ctx, "recipe-1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "hash-a", entry.RecipeHash)
	assert.Len(t, entry.Associations, 3)
}

func TestGormStoreSaveReplaces(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.Save(ctx, "recipe-1", "hash-a", sampleAssociations()))
	first, err := s.Load(ctx, "recipe-1")
	require.NoError(t, err)

	replacement := []association.Association{{Ingredient: "garlic", Step: 1, Text: "garlic"}}
	require.NoError(t, s.Save(ctx, "recipe-1", "hash-b", replacement))

	entry, err := s.Load(ctx, "recipe-1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "hash-b", entry.RecipeHash)
	assert.Equal(t, replacement, entry.Associations)
	assert.Equal(t, first.CreatedAt.Unix(), entry.CreatedAt.Unix())

	var count int64
	require.NoError(t, s.db.Model(&ingredientAssociationModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGormStoreClear(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.Save(ctx, "recipe-1", "hash-a", sampleAssociations()))
	require.NoError(t, s.Save(ctx, "recipe-2", "hash-z", sampleAssociations()))

	require.NoError(t, s.Clear(ctx, "recipe-1"))
	// 重複清除不算錯誤
	require.NoError(t, s.Clear(ctx, "recipe-1"))
	require.NoError(t, s.Clear(ctx, "never-saved"))

	lookup, err := s.Get(ctx, "recipe-1", "hash-a")
	require.NoError(t, err)
	assert.Equal(t, association.StatusNone, lookup.Status)

	other, err := s.Get(ctx, "recipe-2", "hash-z")
	require.NoError(t, err)
	assert.Equal(t, association.StatusValid, other.Status)
	assert.Len(t, other.Associations, 3)
}

func TestGormStorePing(t *testing.T) {
	s := createTestStore(t)
	assert.NoError(t, s.Ping(t.Context()))
}

func TestGormStoreErrorsAreStoreErrors(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.Get(t.Context(), "recipe-1", "hash-a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, association.ErrStore))

	var storeErr *association.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "recipe-1", storeErr.RecipeID)
}

func TestGormStoreConcurrentFirstSaves(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	// 允許多個連線同時寫入，讓首次建立真的並行
	sqlDB, err := s.db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(4)

	const writers = 6
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.Save(ctx, "recipe-1", fmt.Sprintf("hash-%d", i), []association.Association{
				{Ingredient: fmt.Sprintf("item-%d", i), Step: 1, Text: "item"},
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	entry, err := s.Load(ctx, "recipe-1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Len(t, entry.Associations, 1)
	assert.Equal(t, "hash-"+entry.Associations[0].Ingredient[len("item-"):], entry.RecipeHash)

	var parents int64
	require.NoError(t, s.db.Model(&recipeAssociationModel{}).Count(&parents).Error)
	assert.Equal(t, int64(1), parents)
}
