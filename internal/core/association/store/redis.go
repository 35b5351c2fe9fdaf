package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipe-linker/internal/core/association"
	"recipe-linker/internal/infrastructure/config"
	"recipe-linker/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// RedisStore 將每份食譜的關聯存成單一 JSON 值，SET 本身即為原子取代
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore 建立 Redis 儲存並測試連線
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisStoreWithClient 使用既有 client 建立儲存
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "recipe-linker"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *RedisStore) key(recipeID string) string {
	return fmt.Sprintf("%s:associations:%s", s.prefix, recipeID)
}

// Get 依 hash 判斷快取狀態
func (s *RedisStore) Get(ctx context.Context, recipeID, hash string) (association.Lookup, error) {
	entry, err := s.Load(ctx, recipeID)
	if err != nil {
		return association.Lookup{}, err
	}
	return association.LookupFromEntry(entry, hash), nil
}

// Load 讀取整份快取
func (s *RedisStore) Load(ctx context.Context, recipeID string) (*association.Entry, error) {
	data, err := s.client.Get(ctx, s.key(recipeID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, association.NewStoreError("load", recipeID, err)
	}

	var entry association.Entry
	if err := common.ParseJSONBytes(data, &entry); err != nil {
		return nil, association.NewStoreError("load", recipeID, fmt.Errorf("failed to unmarshal entry: %w", err))
	}
	return &entry, nil
}

// Save 以單次 SET 取代整份關聯，保留原本的建立時間
func (s *RedisStore) Save(ctx context.Context, recipeID, hash string, associations []association.Association) error {
	now := s.now()
	created := now
	if existing, err := s.Load(ctx, recipeID); err != nil {
		return err
	} else if existing != nil && !existing.CreatedAt.IsZero() {
		created = existing.CreatedAt
	}

	if associations == nil {
		associations = []association.Association{}
	}
	data, err := common.ToJSON(association.Entry{
		RecipeID:     recipeID,
		RecipeHash:   hash,
		Associations: associations,
		CreatedAt:    created,
		UpdatedAt:    now,
	})
	if err != nil {
		return association.NewStoreError("save", recipeID, fmt.Errorf("failed to marshal entry: %w", err))
	}

	if err := s.client.Set(ctx, s.key(recipeID), data, 0).Err(); err != nil {
		return association.NewStoreError("save", recipeID, err)
	}
	return nil
}

// Clear 刪除快取，不存在時不做事
func (s *RedisStore) Clear(ctx context.Context, recipeID string) error {
	if err := s.client.Del(ctx, s.key(recipeID)).Err(); err != nil {
		return association.NewStoreError("clear", recipeID, err)
	}
	return nil
}

// Ping 檢查 Redis 連線
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return association.NewStoreError("ping", "", err)
	}
	return nil
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}
