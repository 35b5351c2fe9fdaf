package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-linker/internal/api"
	"recipe-linker/internal/app"
	"recipe-linker/internal/infrastructure/config"
	"recipe-linker/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("generator_provider", cfg.Generator.Provider),
		zap.String("generator_model", cfg.Generator.Model),
		zap.String("generator_api_key", common.MaskSecret(cfg.Generator.APIKey)),
		zap.String("store_backend", cfg.Store.Backend),
	)

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	application, err := app.New(initCtx, cfg)
	cancelInit()
	if err != nil {
		common.LogFatal("Failed to initialize application", zap.Error(err))
	}
	defer func() {
		if err := application.Close(); err != nil {
			common.LogError("Failed to close application", zap.Error(err))
		}
	}()

	deps := api.Dependencies{
		Associations:        application.Service,
		Store:               application.Service,
		Gatherer:            application.Registry,
		GeneratorConfigured: application.Generator.Configured(),
	}
	if application.Source != nil {
		deps.Source = application.Source
	}
	if application.Queue != nil {
		deps.Queue = application.Queue
	}

	router, err := api.SetupRouter(cfg, deps)
	if err != nil {
		common.LogFatal("Failed to setup router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
			zap.Bool("debug", cfg.App.Debug),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		common.LogError("Failed to start server", zap.Error(err))
		return
	}

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		return
	}

	common.LogInfo("Server exited")
}
