// Package associations 提供關聯查詢、生成、編輯與比對的 HTTP 介面
package associations

import (
	"context"
	"net/http"
	"strings"

	"recipe-linker/internal/api/handlers"
	"recipe-linker/internal/api/middleware"
	"recipe-linker/internal/core/association"
	"recipe-linker/internal/core/matching"
	"recipe-linker/internal/core/recipe"
	"recipe-linker/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Service handler 需要的關聯操作
type Service interface {
	Check(ctx context.Context, recipeID string, ingredients []recipe.Ingredient, steps []recipe.Step) (*association.Result, error)
	Ensure(ctx context.Context, recipeID string, ingredients []recipe.Ingredient, steps []recipe.Step, forceRegenerate bool) (*association.Result, error)
	Save(ctx context.Context, recipeID string, ingredients []recipe.Ingredient, steps []recipe.Step, associations []association.Association) (*association.Result, error)
	Clear(ctx context.Context, recipeID string) error
}

// RecipeRequest 食譜內容
type RecipeRequest struct {
	RecipeID    string              `json:"recipe_id" binding:"required"`
	Ingredients []recipe.Ingredient `json:"ingredients"`
	Steps       []recipe.Step       `json:"steps"`
}

// FindRequest 查詢並在需要時生成關聯
type FindRequest struct {
	RecipeRequest
	ForceRegenerate bool `json:"force_regenerate"`
}

// SaveRequest 儲存手動編輯的關聯
type SaveRequest struct {
	Ingredients  []recipe.Ingredient       `json:"ingredients"`
	Steps        []recipe.Step             `json:"steps"`
	Associations []association.Association `json:"associations"`
}

// MappingRequest 由關聯列表建立雙向索引
type MappingRequest struct {
	Ingredients  []recipe.Ingredient       `json:"ingredients"`
	Associations []association.Association `json:"associations"`
}

// ScanRequest 直接掃描步驟文字找出食材
type ScanRequest struct {
	Ingredients []recipe.Ingredient `json:"ingredients"`
	Steps       []recipe.Step       `json:"steps"`
}

// ScanStep 單一步驟中找到的食材
type ScanStep struct {
	Step        int      `json:"step"`
	Ingredients []string `json:"ingredients"`
}

// Handler 關聯處理程序
type Handler struct {
	service Service
}

// NewHandler 創建關聯處理程序
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register 註冊路由；find 另外掛上去重與限流
func (h *Handler) Register(group *gin.RouterGroup, findMiddleware ...gin.HandlerFunc) {
	group.POST("/check", h.HandleCheck)
	group.POST("/find", append(append([]gin.HandlerFunc{}, findMiddleware...), h.HandleFind)...)
	group.POST("/mapping", h.HandleMapping)
	group.POST("/scan", h.HandleScan)
	group.PUT("/:recipe_id", h.HandleSave)
	group.DELETE("/:recipe_id", h.HandleClear)
}

func normalizeInput(ingredients []recipe.Ingredient, steps []recipe.Step) ([]recipe.Ingredient, []recipe.Step) {
	return recipe.EnsureReferenceIDs(ingredients), recipe.IndexSteps(steps)
}

// HandleCheck 只查快取狀態
func (h *Handler) HandleCheck(c *gin.Context) {
	var req RecipeRequest
	if !handlers.BindJSON(c, &req) {
		return
	}
	c.Set(middleware.RecipeIDKey, req.RecipeID)

	ingredients, steps := normalizeInput(req.Ingredients, req.Steps)
	result, err := h.service.Check(c.Request.Context(), req.RecipeID, ingredients, steps)
	if err != nil {
		handlers.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handlers.NewAssociationResponse(req.RecipeID, result))
}

// HandleFind 快取有效時直接回傳，否則呼叫生成器
func (h *Handler) HandleFind(c *gin.Context) {
	var req FindRequest
	if !handlers.BindJSON(c, &req) {
		return
	}
	c.Set(middleware.RecipeIDKey, req.RecipeID)

	common.LogInfo("開始處理關聯查詢",
		zap.String("request_id", handlers.RequestID(c)),
		zap.String("recipe_id", req.RecipeID),
		zap.Int("ingredients", len(req.Ingredients)),
		zap.Int("steps", len(req.Steps)),
		zap.Bool("force_regenerate", req.ForceRegenerate),
	)

	ingredients, steps := normalizeInput(req.Ingredients, req.Steps)
	result, err := h.service.Ensure(c.Request.Context(), req.RecipeID, ingredients, steps, req.ForceRegenerate)
	if err != nil {
		handlers.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handlers.NewAssociationResponse(req.RecipeID, result))
}

// HandleSave 以目前內容的 hash 儲存編輯後的關聯
func (h *Handler) HandleSave(c *gin.Context) {
	recipeID := strings.TrimSpace(c.Param("recipe_id"))
	c.Set(middleware.RecipeIDKey, recipeID)

	var req SaveRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	ingredients, steps := normalizeInput(req.Ingredients, req.Steps)
	result, err := h.service.Save(c.Request.Context(), recipeID, ingredients, steps, req.Associations)
	if err != nil {
		handlers.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handlers.NewAssociationResponse(recipeID, result))
}

// HandleClear 清除快取
func (h *Handler) HandleClear(c *gin.Context) {
	recipeID := strings.TrimSpace(c.Param("recipe_id"))
	c.Set(middleware.RecipeIDKey, recipeID)

	if err := h.service.Clear(c.Request.Context(), recipeID); err != nil {
		handlers.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleMapping 不經過快取，直接由關聯建立索引
func (h *Handler) HandleMapping(c *gin.Context) {
	var req MappingRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	ingredients := recipe.EnsureReferenceIDs(req.Ingredients)
	c.JSON(http.StatusOK, association.BuildMapping(ingredients, req.Associations).View())
}

// HandleScan 逐步驟比對文字中出現的食材
func (h *Handler) HandleScan(c *gin.Context) {
	var req ScanRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	ingredients, steps := normalizeInput(req.Ingredients, req.Steps)
	out := make([]ScanStep, 0, len(steps))
	for _, step := range steps {
		found := matching.FindInText(step.Text, ingredients)
		ids := make([]string, 0, len(found))
		for _, ing := range found {
			ids = append(ids, ing.ReferenceID)
		}
		out = append(out, ScanStep{Step: step.StepNumber(), Ingredients: ids})
	}

	c.JSON(http.StatusOK, gin.H{"steps": out})
}
