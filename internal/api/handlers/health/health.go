package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"recipe-linker/internal/core/ai/queue"
	"recipe-linker/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const readinessTimeout = 3 * time.Second

// Pinger 儲存後端可用性檢查
type Pinger interface {
	Ping(ctx context.Context) error
}

// QueueReporter 提供生成隊列狀態
type QueueReporter interface {
	Status() queue.Status
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Generator bool                   `json:"generator_configured"`
	Queue     *queue.Status          `json:"queue,omitempty"`
}

// Handler 健康檢查處理程序
type Handler struct {
	version   string
	store     Pinger
	queue     QueueReporter
	generator bool
}

// NewHandler 創建健康檢查處理程序；store 與 queue 可為 nil
func NewHandler(version string, store Pinger, reporter QueueReporter, generatorConfigured bool) *Handler {
	return &Handler{version: version, store: store, queue: reporter, generator: generatorConfigured}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Generator: h.generator,
	}
	if h.queue != nil {
		status := h.queue.Status()
		response.Queue = &status
	}

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查：儲存後端必須可連線
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			common.LogWarn("Readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"store":  err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
