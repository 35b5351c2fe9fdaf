package association

import (
	"fmt"
	"strings"

	"recipe-linker/internal/pkg/common"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// validateOne 檢查單筆關聯是否完整；stepCount > 0 時步驟編號不可超出範圍
func validateOne(a *Association, stepCount int) error {
	stepRules := []validation.Rule{validation.Required, validation.Min(1)}
	if stepCount > 0 {
		stepRules = append(stepRules, validation.Max(stepCount))
	}
	return validation.ValidateStruct(a,
		validation.Field(&a.Ingredient, validation.Required),
		validation.Field(&a.Step, stepRules...),
		validation.Field(&a.Text, validation.Required),
	)
}

// tidy 去除前後空白，空的選填欄位改為 nil
func tidy(a Association) Association {
	a.Ingredient = strings.TrimSpace(a.Ingredient)
	a.Text = strings.TrimSpace(a.Text)
	if a.Amount != nil {
		a.Amount = StringPtr(strings.TrimSpace(*a.Amount))
	}
	if a.Usage != nil {
		a.Usage = StringPtr(strings.TrimSpace(*a.Usage))
	}
	return a
}

// Reconcile 過濾生成結果：不完整或步驟超出範圍的紀錄會被丟棄
//
// 回傳保留的關聯與被丟棄的數量。
func Reconcile(associations []Association, stepCount int) ([]Association, int) {
	accepted := make([]Association, 0, len(associations))
	rejected := 0
	for _, raw := range associations {
		a := tidy(raw)
		if stepCount <= 0 {
			rejected++
			continue
		}
		if err := validateOne(&a, stepCount); err != nil {
			rejected++
			continue
		}
		accepted = append(accepted, a)
	}
	return accepted, rejected
}

// Validate 手動儲存前的嚴格驗證，任何一筆不合法就整批拒絕
func Validate(associations []Association, stepCount int) ([]Association, error) {
	out := make([]Association, 0, len(associations))
	errs := validation.Errors{}
	for i, raw := range associations {
		a := tidy(raw)
		if stepCount <= 0 {
			errs[fmt.Sprintf("%d", i)] = fmt.Errorf("recipe has no steps")
			continue
		}
		if err := validateOne(&a, stepCount); err != nil {
			errs[fmt.Sprintf("%d", i)] = err
			continue
		}
		out = append(out, a)
	}
	if err := errs.Filter(); err != nil {
		return nil, common.NewValidationError("invalid associations: " + err.Error())
	}
	return out, nil
}
