package chef

import (
	"net/http"
	"strings"

	chefCore "recipe-synthesizer/internal/core/chef"
	"recipe-synthesizer/internal/core/knowledge"
	"recipe-synthesizer/internal/infrastructure/cache"
	"recipe-synthesizer/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SynthesizeRequest 自由文字查詢
type SynthesizeRequest struct {
	Query string `json:"query"`
}

// SynthesizeResponse 合成結果，有多個選項時附上票據 id
type SynthesizeResponse struct {
	chefCore.Response
	Ticket string `json:"ticket,omitempty"`
}

// ResolveRequest 選擇票據中的第幾個選項，從 0 開始
type ResolveRequest struct {
	Option *int `json:"option" binding:"required"`
}

// RecipeSummary 相關食譜列表的項目
type RecipeSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
	Cuisine  string `json:"cuisine,omitempty"`
}

// TermResponse 術語解釋
type TermResponse struct {
	TermID string `json:"term_id"`
	Text   string `json:"text"`
}

// Handler 食譜合成處理程序
type Handler struct {
	svc     *chefCore.Service
	tickets cache.Store
}

// NewHandler 創建處理程序，tickets 為 nil 時不發票據
func NewHandler(svc *chefCore.Service, tickets cache.Store) *Handler {
	return &Handler{svc: svc, tickets: tickets}
}

// HandleSynthesize 自由文字合成食譜
func (h *Handler) HandleSynthesize(c *gin.Context) {
	var req SynthesizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.Wrap(common.ErrInvalidRequest, err))
		return
	}
	query := strings.TrimSpace(req.Query)

	common.LogInfo("synthesize request",
		zap.String("request_id", requestid.Get(c)),
		zap.String("query", query),
	)

	resp := SynthesizeResponse{Response: h.svc.Synthesize(query)}

	if resp.Kind == chefCore.KindOptions && h.tickets != nil {
		ids := make([]string, len(resp.Options))
		for i, o := range resp.Options {
			ids[i] = o.RecipeID
		}
		ticket := cache.NewTicket(query, ids)
		if err := h.tickets.Put(c.Request.Context(), ticket); err != nil {
			// 選項仍可用 /recipes/:id 取得，票據失敗不影響回應
			common.LogWarn("failed to store ticket", zap.Error(err))
		} else {
			resp.Ticket = ticket.ID
		}
	}

	c.JSON(http.StatusOK, resp)
}

// HandleResolve 以票據與選項序號取得食譜
func (h *Handler) HandleResolve(c *gin.Context) {
	if h.tickets == nil {
		common.WriteError(c, common.ErrCacheDisabled)
		return
	}

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.Wrap(common.ErrInvalidRequest, err))
		return
	}

	ticket, err := h.tickets.Get(c.Request.Context(), c.Param("ticket"))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	id, err := ticket.Option(*req.Option)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	recipe, ok := h.svc.FindByID(id)
	if !ok {
		common.LogDataConsistency("ticket option refers to unknown recipe",
			zap.String("ticket", ticket.ID),
			zap.String("recipe_id", id),
		)
		common.WriteError(c, common.ErrRecipeNotFound)
		return
	}

	c.JSON(http.StatusOK, h.svc.Assemble(recipe))
}

// HandleRecipe 依 id 渲染食譜
func (h *Handler) HandleRecipe(c *gin.Context) {
	recipe, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.svc.Assemble(recipe))
}

// HandleRelated 列出相關食譜
func (h *Handler) HandleRelated(c *gin.Context) {
	recipe, ok := h.lookup(c)
	if !ok {
		return
	}
	related := h.svc.Related(recipe)
	out := make([]RecipeSummary, len(related))
	for i, r := range related {
		out[i] = summarize(r)
	}
	c.JSON(http.StatusOK, gin.H{"recipe_id": recipe.ID, "related": out})
}

// lookup 取出路徑中的食譜，找不到時已寫入錯誤
func (h *Handler) lookup(c *gin.Context) (*knowledge.Recipe, bool) {
	id := c.Param("id")
	recipe, ok := h.svc.FindByID(id)
	if !ok {
		common.LogDataConsistency("recipe id not found", zap.String("recipe_id", id))
		common.WriteError(c, common.ErrRecipeNotFound)
		return nil, false
	}
	return recipe, true
}

// HandleIntention 依意圖片語直接取得食譜
func (h *Handler) HandleIntention(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		common.WriteError(c, common.Wrap(common.ErrInvalidRequest, common.NewValidationError("query parameter q is required")))
		return
	}
	recipe, ok := h.svc.FindByIntention(q)
	if !ok {
		common.WriteError(c, common.ErrRecipeNotFound)
		return
	}
	c.JSON(http.StatusOK, h.svc.Assemble(recipe))
}

// HandleRandomByCategory 指定類別隨機一道
func (h *Handler) HandleRandomByCategory(c *gin.Context) {
	recipe, ok := h.svc.FindRandomByCategory(c.Param("category"))
	h.random(c, recipe, ok)
}

// HandleRandomByCuisine 指定料理風格隨機一道
func (h *Handler) HandleRandomByCuisine(c *gin.Context) {
	recipe, ok := h.svc.FindRandomByCuisine(c.Param("cuisine"))
	h.random(c, recipe, ok)
}

func (h *Handler) random(c *gin.Context, recipe *knowledge.Recipe, ok bool) {
	if !ok {
		common.WriteError(c, common.ErrRecipeNotFound)
		return
	}
	c.JSON(http.StatusOK, h.svc.Assemble(recipe))
}

// HandleCuisines 列出料理風格
func (h *Handler) HandleCuisines(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cuisines": nonNil(h.svc.ListCuisines())})
}

// HandleCategories 列出類別
func (h *Handler) HandleCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": nonNil(h.svc.ListCategories())})
}

// HandleTerm 術語解釋
func (h *Handler) HandleTerm(c *gin.Context) {
	id := c.Param("id")
	text, ok := h.svc.ExplainTerm(id)
	if !ok {
		common.WriteError(c, common.ErrTermNotFound)
		return
	}
	c.JSON(http.StatusOK, TermResponse{TermID: id, Text: text})
}

func summarize(r *knowledge.Recipe) RecipeSummary {
	return RecipeSummary{ID: r.ID, Title: r.Title, Category: r.Category, Cuisine: r.Cuisine}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
