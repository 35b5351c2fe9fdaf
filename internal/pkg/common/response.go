package common

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WriteError 將錯誤轉為 ErrorResponse 並中止請求
//
// ValidationError → 400，CustomError 使用自身狀態碼，context 逾時 → 504，
// 其餘視為內部錯誤。
func WriteError(c *gin.Context, err error) {
	custom := AsCustomError(err)
	if custom.Status >= 500 {
		LogError("請求處理失敗",
			zap.Error(err),
			zap.String("code", custom.Code),
			zap.String("path", c.Request.URL.Path),
		)
	}
	c.AbortWithStatusJSON(custom.Status, custom.Response(gin.IsDebugging()))
}

// AsCustomError 將任意錯誤歸類為 CustomError
func AsCustomError(err error) *CustomError {
	var custom *CustomError
	switch {
	case errors.As(err, &custom):
		return custom
	case IsValidationError(err):
		return NewError(ErrCodeInvalidRequest, err.Error(), ErrInvalidRequest.Status, err)
	case errors.Is(err, context.DeadlineExceeded):
		return ErrGatewayTimeout.Wrap(err)
	case errors.Is(err, context.Canceled):
		return ErrRequestTimeout.Wrap(err)
	default:
		return ErrInternalError.Wrap(err)
	}
}
