// Package recipes 透過食譜來源讀取食譜，並附上關聯結果
package recipes

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"recipe-linker/internal/api/handlers"
	"recipe-linker/internal/api/handlers/associations"
	"recipe-linker/internal/api/middleware"
	"recipe-linker/internal/core/recipe"
	"recipe-linker/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errRecipeSourceDisabled = errors.New("recipe source is not configured")

// Source 食譜來源
type Source interface {
	ListRecipes(ctx context.Context) ([]recipe.Summary, error)
	GetRecipe(ctx context.Context, slug string) (*recipe.Recipe, error)
}

// RecipeResponse 食譜內容與其關聯
type RecipeResponse struct {
	Recipe       *recipe.Recipe                `json:"recipe"`
	Associations handlers.AssociationResponse `json:"associations"`
}

// Handler 食譜處理程序
type Handler struct {
	source  Source
	service associations.Service
}

// NewHandler 創建食譜處理程序；source 為 nil 時所有路由回應 503
func NewHandler(source Source, service associations.Service) *Handler {
	return &Handler{source: source, service: service}
}

// Register 註冊路由
func (h *Handler) Register(group *gin.RouterGroup, ensureMiddleware ...gin.HandlerFunc) {
	group.GET("", h.HandleList)
	group.GET("/:slug", h.HandleGet)
	group.POST("/:slug/associations", append(append([]gin.HandlerFunc{}, ensureMiddleware...), h.HandleEnsure)...)
}

func (h *Handler) available(c *gin.Context) bool {
	if h.source == nil {
		handlers.WriteError(c, common.ErrServiceUnavailable.Wrap(errRecipeSourceDisabled))
		return false
	}
	return true
}

// associationKey 關聯快取使用來源的 id，沒有時退回 slug
func associationKey(r *recipe.Recipe) string {
	if r.ID != "" {
		return r.ID
	}
	return r.Slug
}

// HandleList 列出食譜
func (h *Handler) HandleList(c *gin.Context) {
	if !h.available(c) {
		return
	}

	summaries, err := h.source.ListRecipes(c.Request.Context())
	if err != nil {
		handlers.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": summaries})
}

// HandleGet 取得食譜與快取中的關聯（不觸發生成）
func (h *Handler) HandleGet(c *gin.Context) {
	if !h.available(c) {
		return
	}

	r, err := h.source.GetRecipe(c.Request.Context(), c.Param("slug"))
	if err != nil {
		handlers.WriteError(c, err)
		return
	}
	recipeID := associationKey(r)
	c.Set(middleware.RecipeIDKey, recipeID)

	result, err := h.service.Check(c.Request.Context(), recipeID, r.Ingredients, r.Steps)
	if err != nil {
		handlers.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, RecipeResponse{
		Recipe:       r,
		Associations: handlers.NewAssociationResponse(recipeID, result),
	})
}

// HandleEnsure 取得食譜後確保關聯存在，?force=true 強制重新生成
func (h *Handler) HandleEnsure(c *gin.Context) {
	if !h.available(c) {
		return
	}

	force := false
	if raw := c.Query("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			handlers.WriteError(c, common.NewValidationError("force must be a boolean"))
			return
		}
		force = parsed
	}

	r, err := h.source.GetRecipe(c.Request.Context(), c.Param("slug"))
	if err != nil {
		handlers.WriteError(c, err)
		return
	}
	recipeID := associationKey(r)
	c.Set(middleware.RecipeIDKey, recipeID)

	common.LogInfo("開始確保食譜關聯",
		zap.String("request_id", handlers.RequestID(c)),
		zap.String("recipe_id", recipeID),
		zap.String("slug", r.Slug),
		zap.Bool("force_regenerate", force),
	)

	result, err := h.service.Ensure(c.Request.Context(), recipeID, r.Ingredients, r.Steps, force)
	if err != nil {
		handlers.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, RecipeResponse{
		Recipe:       r,
		Associations: handlers.NewAssociationResponse(recipeID, result),
	})
}
