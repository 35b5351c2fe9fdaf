// Package handlers 放置各 handler 共用的請求解析與錯誤輸出
package handlers

import (
	"errors"
	"fmt"

	"recipe-linker/internal/core/association"
	"recipe-linker/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
)

// AssociationResponse 關聯結果加上雙向索引
type AssociationResponse struct {
	RecipeID string `json:"recipe_id"`
	*association.Result
	Mapping association.MappingView `json:"mapping"`
}

// NewAssociationResponse 由 Service 結果組出回應
func NewAssociationResponse(recipeID string, result *association.Result) AssociationResponse {
	return AssociationResponse{
		RecipeID: recipeID,
		Result:   result,
		Mapping:  result.Mapping().View(),
	}
}

// WriteError 將領域錯誤轉為 API 錯誤回應
func WriteError(c *gin.Context, err error) {
	var cfgErr *association.ConfigurationError
	switch {
	case errors.Is(err, association.ErrStore):
		err = common.ErrStoreFailure.Wrap(err)
	case errors.As(err, &cfgErr):
		err = common.ErrServiceUnavailable.Wrap(err)
	}
	_ = c.Error(err)
	common.WriteError(c, err)
}

// BindJSON 解析 JSON，失敗時直接回應 400
func BindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		WriteError(c, common.NewError(common.ErrCodeInvalidRequest,
			fmt.Sprintf("無效的請求格式: %v", err), common.ErrInvalidRequest.Status, err))
		return false
	}
	return true
}

// RequestID 目前請求的 ID
func RequestID(c *gin.Context) string {
	if id := requestid.Get(c); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}
