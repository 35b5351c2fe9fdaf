package store

import (
	"context"
	"sync"
	"time"

	"recipe-linker/internal/core/association"
	"recipe-linker/internal/pkg/common"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const (
	defaultCacheMaxSize = 1000
	defaultCacheTTL     = 24 * time.Hour
)

type cachedEntry struct {
	entry    association.Entry
	storedAt time.Time
}

// CachedStore 在任一儲存後端前加上 LRU 熱快取，過期時間在讀取時檢查
type CachedStore struct {
	backend association.Store
	cache   *lru.Cache[string, cachedEntry]
	ttl     time.Duration
	locks   *keyedMutex
}

// NewCachedStore 包裝 backend；maxSize 或 ttl 非正數時使用預設值
func NewCachedStore(backend association.Store, maxSize int, ttl time.Duration) (*CachedStore, error) {
	if maxSize <= 0 {
		maxSize = defaultCacheMaxSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	cache, err := lru.New[string, cachedEntry](maxSize)
	if err != nil {
		return nil, err
	}

	common.LogInfo("關聯快取已初始化",
		zap.Int("最大容量", maxSize),
		zap.Duration("存活時間", ttl),
	)

	return &CachedStore{
		backend: backend,
		cache:   cache,
		ttl:     ttl,
		locks:   newKeyedMutex(),
	}, nil
}

// Get 依 hash 判斷快取狀態
func (s *CachedStore) Get(ctx context.Context, recipeID, hash string) (association.Lookup, error) {
	entry, err := s.Load(ctx, recipeID)
	if err != nil {
		return association.Lookup{}, err
	}
	return association.LookupFromEntry(entry, hash), nil
}

// Load 先查記憶體，未命中或過期時讀取後端
func (s *CachedStore) Load(ctx context.Context, recipeID string) (*association.Entry, error) {
	unlock := s.locks.Lock(recipeID)
	defer unlock()

	if cached, ok := s.cache.Get(recipeID); ok {
		if time.Since(cached.storedAt) < s.ttl {
			common.LogDebug("快取命中", zap.String("recipe_id", recipeID))
			return cloneEntry(cached.entry), nil
		}
		s.cache.Remove(recipeID)
		common.LogDebug("快取已過期", zap.String("recipe_id", recipeID))
	}

	entry, err := s.backend.Load(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		s.cache.Add(recipeID, cachedEntry{entry: *cloneEntry(*entry), storedAt: time.Now()})
	}
	return entry, nil
}

// Save 寫入後端後讓快取失效
func (s *CachedStore) Save(ctx context.Context, recipeID, hash string, associations []association.Association) error {
	unlock := s.locks.Lock(recipeID)
	defer unlock()

	s.cache.Remove(recipeID)
	return s.backend.Save(ctx, recipeID, hash, associations)
}

// Clear 清除後端與快取
func (s *CachedStore) Clear(ctx context.Context, recipeID string) error {
	unlock := s.locks.Lock(recipeID)
	defer unlock()

	s.cache.Remove(recipeID)
	return s.backend.Clear(ctx, recipeID)
}

// Ping 轉交後端
func (s *CachedStore) Ping(ctx context.Context) error {
	if p, ok := s.backend.(association.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Len 目前快取筆數
func (s *CachedStore) Len() int {
	return s.cache.Len()
}

// Close 清空快取並關閉後端
func (s *CachedStore) Close() error {
	s.cache.Purge()
	return s.backend.Close()
}

func cloneEntry(e association.Entry) *association.Entry {
	out := e
	out.Associations = append([]association.Association(nil), e.Associations...)
	if out.Associations == nil {
		out.Associations = []association.Association{}
	}
	return &out
}

// keyedMutex 每個 key 各自一把鎖，沒有使用者時就釋放
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock 取得 key 的鎖，回傳解鎖函式
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
