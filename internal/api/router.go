package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"recipe-linker/internal/api/handlers/associations"
	"recipe-linker/internal/api/handlers/health"
	"recipe-linker/internal/api/handlers/recipes"
	"recipe-linker/internal/api/middleware"
	"recipe-linker/internal/infrastructure/config"
	"recipe-linker/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const defaultRequestTimeout = 120 * time.Second

// Dependencies 路由需要的服務，由 main 建立後注入
type Dependencies struct {
	Associations        associations.Service
	Store               health.Pinger
	Queue               health.QueueReporter
	Source              recipes.Source
	Gatherer            prometheus.Gatherer
	GeneratorConfigured bool
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	if deps.Associations == nil {
		return nil, errors.New("association service is required")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(common.GenerateUUID)))
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.BodyLimit))

	timeout := cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	router.Use(requestTimeout(timeout))

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg.App.Version, deps.Store, deps.Queue, deps.GeneratorConfigured)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// 生成相關路由才做去重與限流
	generationGuards := []gin.HandlerFunc{middleware.NewDeduplicator(cfg.DedupWindow).Handler()}
	if cfg.RateLimit.Enabled {
		generationGuards = append(generationGuards, middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	api := router.Group("/api/v1")
	{
		associations.NewHandler(deps.Associations).
			Register(api.Group("/associations"), generationGuards...)

		recipes.NewHandler(deps.Source, deps.Associations).
			Register(api.Group("/recipes"), generationGuards...)
	}

	router.NoRoute(func(c *gin.Context) {
		common.WriteError(c, common.ErrNotFound)
	})

	common.LogInfo("Router setup completed successfully",
		zap.Bool("recipe_source_enabled", deps.Source != nil),
		zap.Bool("generator_configured", deps.GeneratorConfigured),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Duration("timeout", timeout),
		zap.Int64("max_body_size", cfg.BodyLimit),
	)

	return router, nil
}

// requestTimeout 為每個請求設定逾時，handler 未回應時補上 504
func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeout),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrGatewayTimeout.Response(false))
		}
	}
}
