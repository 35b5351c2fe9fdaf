package main

import (
	"context"
	"errors"
	"sync"

	"recipe-linker/internal/app"
	"recipe-linker/internal/core/recipe"
	"recipe-linker/internal/infrastructure/config"
	"recipe-linker/internal/pkg/common"
)

var errNoRecipeSource = errors.New("recipe source is not configured (set MEALIE_BASE_URL)")

type commandContext struct {
	jsonOutput *bool

	appOnce sync.Once
	app     *app.App
	appErr  error
}

func newCommandContext(jsonOutput *bool) *commandContext {
	return &commandContext{jsonOutput: jsonOutput}
}

func (c *commandContext) ensureApp(ctx context.Context) (*app.App, error) {
	c.appOnce.Do(func() {
		cfg, err := config.LoadConfig()
		if err != nil {
			c.appErr = err
			return
		}
		// CLI 只輸出警告以上的日誌，避免干擾結果
		if err := common.InitLogger("warn"); err != nil {
			c.appErr = err
			return
		}
		c.app, c.appErr = app.New(ctx, cfg)
	})
	return c.app, c.appErr
}

// fetchRecipe 透過食譜來源取得食譜與其關聯 key
func (c *commandContext) fetchRecipe(ctx context.Context, slug string) (*app.App, *recipe.Recipe, string, error) {
	a, err := c.ensureApp(ctx)
	if err != nil {
		return nil, nil, "", err
	}
	if a.Source == nil {
		return nil, nil, "", errNoRecipeSource
	}
	r, err := a.Source.GetRecipe(ctx, slug)
	if err != nil {
		return nil, nil, "", err
	}
	key := r.ID
	if key == "" {
		key = r.Slug
	}
	return a, r, key, nil
}

func (c *commandContext) json() bool {
	return c.jsonOutput != nil && *c.jsonOutput
}

func (c *commandContext) close() error {
	if c.app == nil {
		return nil
	}
	common.Sync()
	return c.app.Close()
}
