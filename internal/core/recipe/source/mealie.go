package source

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"recipe-linker/internal/core/recipe"
	"recipe-linker/internal/infrastructure/config"
	"recipe-linker/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client Mealie 相容的食譜來源客戶端
type Client struct {
	client  *resty.Client
	perPage int
}

type mealieUnit struct {
	Name string `json:"name"`
}

type mealieIngredient struct {
	ReferenceID string      `json:"referenceId"`
	Display     string      `json:"display"`
	Note        string      `json:"note"`
	Quantity    *float64    `json:"quantity"`
	Unit        *mealieUnit `json:"unit"`
}

type mealieInstruction struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type mealieRecipe struct {
	ID                 string              `json:"id"`
	Slug               string              `json:"slug"`
	Name               string              `json:"name"`
	Description        string              `json:"description"`
	RecipeIngredient   []mealieIngredient  `json:"recipeIngredient"`
	RecipeInstructions []mealieInstruction `json:"recipeInstructions"`
}

type mealiePage struct {
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	Items      []mealieRecipe `json:"items"`
}

// maxListPages 列表最多讀取的頁數
const maxListPages = 50

// NewClient 創建食譜來源客戶端
func NewClient(cfg config.RecipeSourceConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("recipe source base url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 100
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	return &Client{client: client, perPage: perPage}, nil
}

// ListRecipes 依建立時間由新到舊列出食譜，逐頁讀取直到 total_pages
func (c *Client) ListRecipes(ctx context.Context) ([]recipe.Summary, error) {
	var summaries []recipe.Summary
	for pageNum := 1; pageNum <= maxListPages; pageNum++ {
		page, err := c.listPage(ctx, pageNum)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			summaries = append(summaries, recipe.Summary{
				ID:          item.ID,
				Slug:        item.Slug,
				Name:        item.Name,
				Description: item.Description,
			})
		}
		if len(page.Items) == 0 || pageNum >= page.TotalPages {
			break
		}
	}
	if summaries == nil {
		summaries = []recipe.Summary{}
	}

	common.LogDebug("已取得食譜列表", zap.Int("count", len(summaries)))
	return summaries, nil
}

func (c *Client) listPage(ctx context.Context, pageNum int) (*mealiePage, error) {
	var page mealiePage
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page":            strconv.Itoa(pageNum),
			"per_page":        strconv.Itoa(c.perPage),
			"order_by":        "created_at",
			"order_direction": "desc",
		}).
		SetResult(&page).
		Get("/api/recipes")
	if err != nil {
		return nil, common.ErrRecipeSource.Wrap(fmt.Errorf("failed to list recipes: %w", err))
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, common.ErrRecipeSource.Wrap(fmt.Errorf("recipe source returned %d: %s",
			resp.StatusCode(), common.Snippet(resp.String(), 200)))
	}
	return &page, nil
}

// GetRecipe 依 slug 取得食譜，並轉為領域型別
func (c *Client) GetRecipe(ctx context.Context, slug string) (*recipe.Recipe, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, common.ErrInvalidRequest.Wrap(fmt.Errorf("slug is required"))
	}

	var raw mealieRecipe
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("slug", slug).
		SetResult(&raw).
		Get("/api/recipes/{slug}")
	if err != nil {
		return nil, common.ErrRecipeSource.Wrap(fmt.Errorf("failed to get recipe %q: %w", slug, err))
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, common.ErrRecipeNotFound.Wrap(fmt.Errorf("recipe %q not found", slug))
	default:
		return nil, common.ErrRecipeSource.Wrap(fmt.Errorf("recipe source returned %d: %s",
			resp.StatusCode(), common.Snippet(resp.String(), 200)))
	}

	return toRecipe(raw), nil
}

func toRecipe(raw mealieRecipe) *recipe.Recipe {
	ingredients := make([]recipe.Ingredient, 0, len(raw.RecipeIngredient))
	for _, ing := range raw.RecipeIngredient {
		unit := ""
		if ing.Unit != nil {
			unit = ing.Unit.Name
		}
		ingredients = append(ingredients, recipe.Ingredient{
			ReferenceID: ing.ReferenceID,
			Display:     ing.Display,
			Note:        ing.Note,
			Quantity:    ing.Quantity,
			Unit:        unit,
		})
	}

	steps := make([]recipe.Step, 0, len(raw.RecipeInstructions))
	for i, ins := range raw.RecipeInstructions {
		steps = append(steps, recipe.Step{Index: i, Title: ins.Title, Text: ins.Text})
	}

	return &recipe.Recipe{
		ID:          raw.ID,
		Slug:        raw.Slug,
		Name:        raw.Name,
		Description: raw.Description,
		Ingredients: recipe.EnsureReferenceIDs(ingredients),
		Steps:       steps,
	}
}
