package association

import (
	"errors"
	"fmt"
)

// ErrStore 所有儲存錯誤都可用 errors.Is 比對
var ErrStore = errors.New("association store error")

// StoreError 儲存操作失敗
type StoreError struct {
	Op       string
	RecipeID string
	Err      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("association store %s %q: %v", e.Op, e.RecipeID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is 讓 errors.Is(err, ErrStore) 成立
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// NewStoreError 包裝儲存錯誤，已是 StoreError 時直接回傳
func NewStoreError(op, recipeID string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, RecipeID: recipeID, Err: err}
}

// ConfigurationError 生成器未設定（沒有 API key 或 provider）
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "association generator not configured: " + e.Reason
}

// GenerationError 生成器呼叫失敗或回應格式錯誤
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("association generation failed: %s: %v", e.Reason, e.Err)
	}
	return "association generation failed: " + e.Reason
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
