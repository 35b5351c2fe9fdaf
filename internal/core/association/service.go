package association

import (
	"context"
	"errors"
	"strings"
	"time"

	"recipe-linker/internal/core/recipe"
	"recipe-linker/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Options Service 的選項
type Options struct {
	// Coalesce 為 true 時，同一份食譜內容同時只會有一個生成請求
	Coalesce bool
	Metrics  *Metrics
}

// Service 關聯查詢與生成的入口
type Service struct {
	store     Store
	generator Generator
	metrics   *Metrics
	coalesce  bool
	group     singleflight.Group
}

// NewService 創建關聯服務；generator 可為 nil（此時 Ensure 一律回傳 none）
func NewService(store Store, generator Generator, opts Options) *Service {
	return &Service{
		store:     store,
		generator: generator,
		metrics:   opts.Metrics,
		coalesce:  opts.Coalesce,
	}
}

func requireRecipeID(recipeID string) error {
	if strings.TrimSpace(recipeID) == "" {
		return common.NewValidationError("recipe_id is required")
	}
	return nil
}

// Check 只查快取，不觸發生成
func (s *Service) Check(ctx context.Context, recipeID string, ingredients []recipe.Ingredient, steps []recipe.Step) (*Result, error) {
	if err := requireRecipeID(recipeID); err != nil {
		return nil, err
	}
	ingredients = recipe.EnsureReferenceIDs(ingredients)
	hash := recipe.Hash(ingredients, steps)

	lookup, err := s.store.Get(ctx, recipeID, hash)
	if err != nil {
		return nil, NewStoreError("get", recipeID, err)
	}
	s.metrics.observeLookup(lookup.Status)
	common.LogLookup(recipeID, string(lookup.Status))

	mapping := BuildMapping(ingredients, lookup.Associations)
	result := &Result{
		Status:       lookup.Status,
		Associations: lookup.Associations,
		RecipeHash:   hash,
		Unresolved:   mapping.Unresolved(),
		mapping:      mapping,
	}

	if lookup.Status == StatusOutdated {
		entry, err := s.store.Load(ctx, recipeID)
		if err != nil {
			return nil, NewStoreError("load", recipeID, err)
		}
		if entry != nil {
			result.StaleAssociations = entry.Associations
		}
	}
	return result, nil
}

// Ensure 快取有效時直接回傳，否則呼叫生成器並寫回快取
//
// 生成器未設定、失敗或回應格式錯誤時回傳 none 與空關聯，不回傳錯誤，舊快取保持不變。
// 儲存錯誤與呼叫端取消則會回傳錯誤。
func (s *Service) Ensure(ctx context.Context, recipeID string, ingredients []recipe.Ingredient, steps []recipe.Step, forceRegenerate bool) (*Result, error) {
	current, err := s.Check(ctx, recipeID, ingredients, steps)
	if err != nil {
		return nil, err
	}
	if current.Status == StatusValid && !forceRegenerate {
		return current, nil
	}

	ingredients = recipe.EnsureReferenceIDs(ingredients)
	none := &Result{
		Status:            StatusNone,
		Associations:      []Association{},
		StaleAssociations: current.StaleAssociations,
		RecipeHash:        current.RecipeHash,
		mapping:           BuildMapping(ingredients, nil),
	}

	if s.generator == nil {
		err := &ConfigurationError{Reason: "no generator"}
		s.metrics.observeGeneration("unconfigured", 0)
		common.LogWarn("關聯生成器未設定", zap.String("recipe_id", recipeID), zap.Error(err))
		return none, nil
	}

	generated, err := s.generateShared(ctx, recipeID, current.RecipeHash, ingredients, steps)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, ErrStore) {
			return nil, err
		}
		return none, nil
	}

	out := *generated
	return &out, nil
}

// generateShared 依設定決定是否合併同一份內容的並行生成
func (s *Service) generateShared(ctx context.Context, recipeID, hash string, ingredients []recipe.Ingredient, steps []recipe.Step) (*Result, error) {
	if !s.coalesce {
		return s.generate(ctx, recipeID, hash, ingredients, steps)
	}

	// 共用的生成不因單一呼叫端取消而中斷，取消的呼叫端自行返回
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(recipeID+":"+hash, func() (interface{}, error) {
		return s.generate(detached, recipeID, hash, ingredients, steps)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			common.LogDebug("共用進行中的關聯生成", zap.String("recipe_id", recipeID))
		}
		return res.Val.(*Result), nil
	}
}

func (s *Service) generate(ctx context.Context, recipeID, hash string, ingredients []recipe.Ingredient, steps []recipe.Step) (*Result, error) {
	start := time.Now()
	raw, err := s.generator.Generate(ctx, ingredients, steps)
	duration := time.Since(start)
	if err != nil {
		var cfgErr *ConfigurationError
		switch {
		case ctx.Err() != nil:
			s.metrics.observeGeneration("cancelled", duration)
			return nil, ctx.Err()
		case errors.As(err, &cfgErr):
			s.metrics.observeGeneration("unconfigured", duration)
			common.LogWarn("關聯生成器未設定", zap.String("recipe_id", recipeID), zap.Error(err))
		default:
			s.metrics.observeGeneration("failed", duration)
			common.LogGeneration(recipeID, 0, duration, err)
		}
		return nil, err
	}

	accepted, rejected := Reconcile(raw, len(steps))
	if err := s.store.Save(ctx, recipeID, hash, accepted); err != nil {
		s.metrics.observeGeneration("store_failed", duration)
		return nil, NewStoreError("save", recipeID, err)
	}

	mapping := BuildMapping(ingredients, accepted)
	s.metrics.observeGeneration("success", duration)
	s.metrics.observeReconcile(mapping.Unresolved(), rejected)
	common.LogGeneration(recipeID, len(accepted), duration, nil)
	if rejected > 0 {
		common.LogDebug("丟棄不完整的關聯", zap.String("recipe_id", recipeID), zap.Int("rejected", rejected))
	}

	return &Result{
		Status:       StatusValid,
		Associations: accepted,
		RecipeHash:   hash,
		Unresolved:   mapping.Unresolved(),
		mapping:      mapping,
	}, nil
}

// Clear 移除食譜的關聯快取
func (s *Service) Clear(ctx context.Context, recipeID string) error {
	if err := requireRecipeID(recipeID); err != nil {
		return err
	}
	if err := s.store.Clear(ctx, recipeID); err != nil {
		return NewStoreError("clear", recipeID, err)
	}
	common.LogInfo("已清除關聯快取", zap.String("recipe_id", recipeID))
	return nil
}

// Save 儲存手動編輯後的關聯（以目前內容的 hash 為準）
func (s *Service) Save(ctx context.Context, recipeID string, ingredients []recipe.Ingredient, steps []recipe.Step, associations []Association) (*Result, error) {
	if err := requireRecipeID(recipeID); err != nil {
		return nil, err
	}
	validated, err := Validate(associations, len(steps))
	if err != nil {
		return nil, err
	}

	ingredients = recipe.EnsureReferenceIDs(ingredients)
	hash := recipe.Hash(ingredients, steps)
	if err := s.store.Save(ctx, recipeID, hash, validated); err != nil {
		return nil, NewStoreError("save", recipeID, err)
	}

	mapping := BuildMapping(ingredients, validated)
	common.LogInfo("已儲存手動編輯的關聯",
		zap.String("recipe_id", recipeID),
		zap.Int("count", len(validated)),
		zap.Int("unresolved", mapping.Unresolved()),
	)

	return &Result{
		Status:       StatusValid,
		Associations: validated,
		RecipeHash:   hash,
		Unresolved:   mapping.Unresolved(),
		mapping:      mapping,
	}, nil
}

// Ping 檢查儲存後端是否可用
func (s *Service) Ping(ctx context.Context) error {
	if p, ok := s.store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
