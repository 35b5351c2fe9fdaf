// Package queue 以固定數量的 worker 排隊呼叫關聯生成器，避免同時打爆 LLM
package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"recipe-linker/internal/core/association"
	"recipe-linker/internal/core/recipe"
	"recipe-linker/internal/infrastructure/config"
	"recipe-linker/internal/pkg/common"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull 隊列已滿
	ErrQueueFull = errors.New("generation queue is full")
	// ErrQueueClosed 隊列已關閉
	ErrQueueClosed = errors.New("generation queue is closed")
)

var _ association.Generator = (*Manager)(nil)

type request struct {
	ctx         context.Context
	ingredients []recipe.Ingredient
	steps       []recipe.Step
	result      chan result
}

type result struct {
	associations []association.Association
	err          error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int   `json:"queue_length"`
	ProcessedCount int64 `json:"processed_count"`
	RejectedCount  int64 `json:"rejected_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

// Manager 隊列管理器，本身也是 association.Generator
type Manager struct {
	generator association.Generator
	queue     chan *request
	workers   int
	maxSize   int
	processed atomic.Int64
	rejected  atomic.Int64
	mu        sync.RWMutex
	closed    bool
	wg        sync.WaitGroup
}

// NewManager 創建隊列並啟動 worker
func NewManager(generator association.Generator, cfg config.QueueConfig) *Manager {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = workers
	}

	m := &Manager{
		generator: generator,
		queue:     make(chan *request, maxSize),
		workers:   workers,
		maxSize:   maxSize,
	}
	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}

	common.LogInfo("生成隊列已啟動",
		zap.Int("workers", workers),
		zap.Int("max_queue_size", maxSize),
	)
	return m
}

// Generate 排入隊列並等待結果；隊列已滿時立即失敗
func (m *Manager) Generate(ctx context.Context, ingredients []recipe.Ingredient, steps []recipe.Step) ([]association.Association, error) {
	req := &request{
		ctx:         ctx,
		ingredients: ingredients,
		steps:       steps,
		result:      make(chan result, 1),
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, ErrQueueClosed
	}
	select {
	case m.queue <- req:
		m.mu.RUnlock()
	default:
		m.mu.RUnlock()
		m.rejected.Add(1)
		common.LogWarn("生成隊列已滿",
			zap.Int("queue_length", len(m.queue)),
			zap.Int("max_queue_size", m.maxSize),
		)
		return nil, ErrQueueFull
	}

	select {
	case res := <-req.result:
		return res.associations, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) worker(id int) {
	defer m.wg.Done()
	for req := range m.queue {
		// 呼叫端已放棄時不再呼叫生成器
		if err := req.ctx.Err(); err != nil {
			req.result <- result{err: err}
			continue
		}

		start := time.Now()
		associations, err := m.generator.Generate(req.ctx, req.ingredients, req.steps)
		m.processed.Add(1)
		req.result <- result{associations: associations, err: err}

		common.LogDebug("生成請求處理完成",
			zap.Int("worker", id),
			zap.Duration("duration", time.Since(start)),
			zap.Bool("failed", err != nil),
		)
	}
}

// Status 獲取隊列狀態
func (m *Manager) Status() Status {
	return Status{
		QueueLength:    len(m.queue),
		ProcessedCount: m.processed.Load(),
		RejectedCount:  m.rejected.Load(),
		MaxQueueSize:   m.maxSize,
		Workers:        m.workers,
	}
}

// Close 停止接受新請求，等待已排入的請求處理完畢
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	m.wg.Wait()
}
