// Package app 依設定組裝儲存、生成器、食譜來源與關聯服務
package app

import (
	"context"
	"errors"
	"fmt"

	"recipe-linker/internal/core/ai/generator"
	"recipe-linker/internal/core/ai/queue"
	"recipe-linker/internal/core/association"
	"recipe-linker/internal/core/association/store"
	"recipe-linker/internal/core/recipe/source"
	"recipe-linker/internal/infrastructure/config"
	"recipe-linker/internal/pkg/common"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// App 已組裝好的服務
type App struct {
	Config    *config.Config
	Store     association.Store
	Generator *generator.Generator
	Queue     *queue.Manager // 生成器未設定時為 nil
	Service   *association.Service
	Source    *source.Client // 未設定食譜來源時為 nil
	Registry  *prometheus.Registry
}

// New 建立所有依賴；失敗時已建立的資源會被釋放
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	assocStore, err := store.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize association store: %w", err)
	}

	gen, err := generator.NewFromConfig(cfg.Generator)
	if err != nil {
		_ = assocStore.Close()
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}

	var (
		assocGenerator  association.Generator
		generationQueue *queue.Manager
	)
	if gen.Configured() {
		generationQueue = queue.NewManager(gen, cfg.Queue)
		assocGenerator = generationQueue
	}

	svc := association.NewService(assocStore, assocGenerator, association.Options{
		Coalesce: cfg.Generation.Coalesce,
		Metrics:  association.MustNewMetrics(registry),
	})

	a := &App{
		Config:    cfg,
		Store:     assocStore,
		Generator: gen,
		Queue:     generationQueue,
		Service:   svc,
		Registry:  registry,
	}

	if cfg.RecipeSource.BaseURL != "" {
		client, err := source.NewClient(cfg.RecipeSource)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to initialize recipe source: %w", err)
		}
		a.Source = client
	} else {
		common.LogWarn("未設定食譜來源，/api/v1/recipes 將回應 503")
	}

	common.LogInfo("服務初始化完成",
		zap.String("store_backend", cfg.Store.Backend),
		zap.Bool("generator_configured", gen.Configured()),
		zap.Bool("coalesce", cfg.Generation.Coalesce),
		zap.Bool("recipe_source_enabled", a.Source != nil),
	)
	return a, nil
}

// Close 依序關閉隊列、生成器與儲存後端
func (a *App) Close() error {
	if a.Queue != nil {
		a.Queue.Close()
	}
	var errs []error
	if a.Generator != nil {
		errs = append(errs, a.Generator.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}
