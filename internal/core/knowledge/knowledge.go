// Package knowledge 匯總食材、食譜、句庫與術語表為單一唯讀的知識庫。
//
// 知識庫只在啟動時建立一次，之後不再修改，可供任意數量的 goroutine 同時讀取。
// 回傳的指標指向知識庫內部的記錄，呼叫端不得修改。
package knowledge

import (
	"errors"
	"fmt"
	"sort"

	"recipe-synthesizer/internal/pkg/common"

	"go.uber.org/zap"
)

// 載入失敗的原因
var (
	ErrNoIngredients = errors.New("knowledge: no ingredients loaded")
	ErrNoRecipes     = errors.New("knowledge: no recipes loaded")
	ErrNoPhrases     = errors.New("knowledge: phrase bank not loaded")
)

// KnowledgeBase 唯讀知識庫
type KnowledgeBase struct {
	ingredients     map[string]*Ingredient
	ingredientOrder []string
	recipes         []*Recipe
	recipeByID      map[string]*Recipe
	phrases         PhraseBank
	terms           map[string]*Term
	termOrder       []string
}

// Stats 知識庫統計
type Stats struct {
	Ingredients int `json:"ingredients"`
	Recipes     int `json:"recipes"`
	Terms       int `json:"terms"`
	Cuisines    int `json:"cuisines"`
	Categories  int `json:"categories"`
}

// Report 載入時發現的資料問題，不影響啟動
type Report struct {
	Warnings []string
}

func (r *Report) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	common.LogWarn("knowledge base data defect", zap.String("detail", msg))
}

// Builder 逐片段累積資料，Build 後產生 KnowledgeBase
type Builder struct {
	ingredients     map[string]*Ingredient
	ingredientOrder []string
	recipes         []*Recipe
	phrases         *PhraseBank
	terms           []Term
}

// NewBuilder 創建空的 Builder
func NewBuilder() *Builder {
	return &Builder{ingredients: make(map[string]*Ingredient)}
}

// AddIngredients 合併一個食材片段，鍵重複時後者覆蓋前者，但保留第一次出現的順序
func (b *Builder) AddIngredients(fragment ...Ingredient) *Builder {
	for i := range fragment {
		ing := fragment[i]
		if ing.Key == "" {
			continue
		}
		if _, exists := b.ingredients[ing.Key]; !exists {
			b.ingredientOrder = append(b.ingredientOrder, ing.Key)
		}
		b.ingredients[ing.Key] = &ing
	}
	return b
}

// AddRecipes 依序串接一個食譜片段
func (b *Builder) AddRecipes(fragment ...Recipe) *Builder {
	for i := range fragment {
		r := fragment[i]
		b.recipes = append(b.recipes, &r)
	}
	return b
}

// SetPhrases 設定句庫
func (b *Builder) SetPhrases(p PhraseBank) *Builder {
	b.phrases = &p
	return b
}

// SetTerms 設定術語表
func (b *Builder) SetTerms(terms ...Term) *Builder {
	b.terms = terms
	return b
}

// Build 驗證並建立知識庫。食材或食譜為空、缺少句庫時回傳錯誤；
// 其餘資料問題只記錄在 Report 中。
func (b *Builder) Build() (*KnowledgeBase, *Report, error) {
	report := &Report{}

	if len(b.ingredients) == 0 {
		return nil, report, ErrNoIngredients
	}
	if len(b.recipes) == 0 {
		return nil, report, ErrNoRecipes
	}
	if b.phrases == nil {
		return nil, report, ErrNoPhrases
	}

	kb := &KnowledgeBase{
		ingredients:     b.ingredients,
		ingredientOrder: b.ingredientOrder,
		recipes:         b.recipes,
		recipeByID:      make(map[string]*Recipe, len(b.recipes)),
		phrases:         *b.phrases,
		terms:           make(map[string]*Term, len(b.terms)),
	}

	for _, r := range kb.recipes {
		if r.ID == "" {
			report.warn("recipe %q has no id", r.Title)
			continue
		}
		if _, dup := kb.recipeByID[r.ID]; dup {
			report.warn("duplicate recipe id %q, lookups return the first one", r.ID)
			continue
		}
		kb.recipeByID[r.ID] = r
	}

	for i := range b.terms {
		t := b.terms[i]
		if t.ID == "" {
			report.warn("term without term_id skipped")
			continue
		}
		if _, dup := kb.terms[t.ID]; !dup {
			kb.termOrder = append(kb.termOrder, t.ID)
		}
		kb.terms[t.ID] = &t
		if len(t.SarcasticComments) == 0 {
			report.warn("term %q has no sarcastic comments", t.ID)
		}
	}
	if len(kb.terms) == 0 {
		report.warn("term list is empty, term explanations are disabled")
	}

	kb.validate(report)

	common.LogInfo("knowledge base loaded",
		zap.Int("ingredients", len(kb.ingredients)),
		zap.Int("recipes", len(kb.recipes)),
		zap.Int("terms", len(kb.terms)),
		zap.Int("warnings", len(report.Warnings)),
	)

	return kb, report, nil
}

// validate 檢查引用一致性，只產生警告
func (kb *KnowledgeBase) validate(report *Report) {
	for _, r := range kb.recipes {
		for _, key := range r.TriggerKeys {
			if _, ok := kb.ingredients[key]; !ok {
				report.warn("recipe %q triggers on unknown ingredient %q", r.ID, key)
			}
		}
		for _, rel := range r.RelatedRecipes {
			if _, ok := kb.recipeByID[rel]; !ok {
				report.warn("recipe %q relates to unknown recipe %q", r.ID, rel)
			}
		}
	}
}

// Ingredient 依鍵查詢食材
func (kb *KnowledgeBase) Ingredient(key string) (*Ingredient, bool) {
	ing, ok := kb.ingredients[key]
	return ing, ok
}

// Ingredients 依載入順序列出食材
func (kb *KnowledgeBase) Ingredients() []*Ingredient {
	out := make([]*Ingredient, 0, len(kb.ingredientOrder))
	for _, key := range kb.ingredientOrder {
		out = append(out, kb.ingredients[key])
	}
	return out
}

// Recipes 依載入順序列出食譜
func (kb *KnowledgeBase) Recipes() []*Recipe {
	return kb.recipes
}

// RecipeByID 依 id 查詢食譜
func (kb *KnowledgeBase) RecipeByID(id string) (*Recipe, bool) {
	r, ok := kb.recipeByID[id]
	return r, ok
}

// Phrases 句庫
func (kb *KnowledgeBase) Phrases() PhraseBank {
	return kb.phrases
}

// Term 依 term_id 查詢術語
func (kb *KnowledgeBase) Term(id string) (*Term, bool) {
	t, ok := kb.terms[id]
	return t, ok
}

// Terms 依載入順序列出術語
func (kb *KnowledgeBase) Terms() []*Term {
	out := make([]*Term, 0, len(kb.termOrder))
	for _, id := range kb.termOrder {
		out = append(out, kb.terms[id])
	}
	return out
}

// Cuisines 不重複的料理風格，依字母排序
func (kb *KnowledgeBase) Cuisines() []string {
	return kb.distinct(func(r *Recipe) string { return r.Cuisine })
}

// Categories 不重複的類別，依字母排序
func (kb *KnowledgeBase) Categories() []string {
	return kb.distinct(func(r *Recipe) string { return r.Category })
}

// RecipesWhere 依序篩選食譜
func (kb *KnowledgeBase) RecipesWhere(pred func(*Recipe) bool) []*Recipe {
	var out []*Recipe
	for _, r := range kb.recipes {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

func (kb *KnowledgeBase) distinct(field func(*Recipe) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range kb.recipes {
		v := field(r)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Stats 統計數量
func (kb *KnowledgeBase) Stats() Stats {
	return Stats{
		Ingredients: len(kb.ingredients),
		Recipes:     len(kb.recipes),
		Terms:       len(kb.terms),
		Cuisines:    len(kb.Cuisines()),
		Categories:  len(kb.Categories()),
	}
}
