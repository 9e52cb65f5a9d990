// Package chef 串接抽取、比對、渲染與術語掃描，提供對外的進入點。
//
// Service 建立後唯讀，所有方法都是純計算，可併發呼叫。
// 唯一的非決定性來自注入的隨機來源。
package chef

import (
	"fmt"
	"strings"

	"recipe-synthesizer/internal/core/extract"
	"recipe-synthesizer/internal/core/knowledge"
	"recipe-synthesizer/internal/core/match"
	"recipe-synthesizer/internal/core/render"
	"recipe-synthesizer/internal/core/terms"
	"recipe-synthesizer/internal/pkg/common"

	"go.uber.org/zap"
)

// Rand 隨機來源
type Rand = knowledge.Rand

// Kind 回應種類
type Kind string

const (
	KindRecipe    Kind = "recipe"
	KindOptions   Kind = "options"
	KindRejection Kind = "rejection"
)

// 拒絕原因
const (
	ReasonNoIngredients = "no_ingredients_found"
	ReasonNoRecipe      = "no_recipe_found"
)

// 句庫缺少對應類別時的備用文字
const (
	fallbackRejection   = "Ошибка."
	fallbackPartialHint = "Ошибка. Шаблон не найден."
	fallbackRecipeName  = "Некий Эксперимент"
	missingNameForm     = "acc_sg"
)

// Assembled 渲染完成的食譜
type Assembled struct {
	RecipeID   string   `json:"recipe_id"`
	Title      string   `json:"title"`
	Text       string   `json:"text"`
	FoundTerms []string `json:"found_terms"`
}

// Option 部分符合時提供給使用者選擇的食譜
type Option struct {
	RecipeID     string   `json:"recipe_id"`
	Title        string   `json:"title"`
	Matches      int      `json:"matches"`
	Missing      []string `json:"missing"`
	MissingNames []string `json:"missing_names"`
	Hint         string   `json:"hint"`
}

// Response Synthesize 的結果，依 Kind 決定哪些欄位有值
type Response struct {
	Kind        Kind     `json:"kind"`
	Text        string   `json:"text"`
	FoundTerms  []string `json:"found_terms"`
	RecipeID    string   `json:"recipe_id,omitempty"`
	Options     []Option `json:"options,omitempty"`
	Reason      string   `json:"reason,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
}

// Service 食譜合成服務
type Service struct {
	kb       *knowledge.KnowledgeBase
	index    *extract.Index
	matcher  *match.Matcher
	renderer *render.Renderer
	scanner  *terms.Scanner
	rng      Rand
}

// NewService 從知識庫建立所有索引；rng 為 nil 時使用全域來源
func NewService(kb *knowledge.KnowledgeBase, rng Rand) *Service {
	if rng == nil {
		rng = knowledge.DefaultRand
	}
	return &Service{
		kb:       kb,
		index:    extract.NewIndex(kb),
		matcher:  match.NewMatcher(kb),
		renderer: render.New(kb),
		scanner:  terms.NewScanner(kb),
		rng:      rng,
	}
}

// Load 載入資料目錄並建立服務，模板檢查的警告也併入 Report
func Load(dir string, rng Rand) (*Service, *knowledge.Report, error) {
	kb, report, err := knowledge.LoadDir(dir)
	if err != nil {
		return nil, report, fmt.Errorf("load knowledge base from %s: %w", dir, err)
	}
	report.Warnings = append(report.Warnings, render.Lint(kb)...)
	return NewService(kb, rng), report, nil
}

// KnowledgeBase 底層知識庫
func (s *Service) KnowledgeBase() *knowledge.KnowledgeBase {
	return s.kb
}

// Synthesize 主要進入點：先找意圖，再抽取食材並比對
func (s *Service) Synthesize(query string) Response {
	if r, ok := s.matcher.FindByIntention(query); ok {
		return s.recipeResponse(r)
	}

	found := s.index.Extract(query)
	if found.Empty() {
		return s.rejection(ReasonNoIngredients, s.kb.Phrases().Rejections.NoIngredientsFound, nil)
	}

	res := s.matcher.Match(found)
	switch res.Status {
	case match.StatusPerfect:
		resp := s.recipeResponse(res.Recipe)
		resp.Ingredients = found.Keys()
		return resp
	case match.StatusPartialOptions:
		return s.optionsResponse(res.Options, found)
	default:
		return s.rejection(ReasonNoRecipe, s.kb.Phrases().Rejections.NoRecipeFound, found.Keys())
	}
}

func (s *Service) recipeResponse(r *knowledge.Recipe) Response {
	a := s.Assemble(r)
	return Response{
		Kind:       KindRecipe,
		Text:       a.Text,
		FoundTerms: a.FoundTerms,
		RecipeID:   r.ID,
	}
}

func (s *Service) rejection(reason string, phrases knowledge.Phrases, keys []string) Response {
	common.LogInfo("synthesis rejected", zap.String("reason", reason), zap.Strings("keys", keys))
	return Response{
		Kind:        KindRejection,
		Text:        phrases.Pick(s.rng, fallbackRejection),
		FoundTerms:  []string{},
		Reason:      reason,
		Ingredients: keys,
	}
}

// optionsResponse 每個選項都附上由 partial_match_found 渲染的提示，
// Text 取第一個選項的提示，只顯示文字的呼叫端也能得到完整訊息
func (s *Service) optionsResponse(candidates []match.Candidate, found extract.Result) Response {
	options := make([]Option, 0, len(candidates))
	for _, c := range candidates {
		names := s.missingNames(c.Missing)
		options = append(options, Option{
			RecipeID:     c.Recipe.ID,
			Title:        c.Recipe.Title,
			Matches:      c.MatchCount(),
			Missing:      c.Missing,
			MissingNames: names,
			Hint:         s.partialHint(c.Recipe, names),
		})
	}

	common.LogInfo("partial match options offered",
		zap.Int("options", len(options)),
		zap.Strings("keys", found.Keys()),
	)

	return Response{
		Kind:        KindOptions,
		Text:        options[0].Hint,
		FoundTerms:  []string{},
		Options:     options,
		Ingredients: found.Keys(),
	}
}

func (s *Service) missingNames(keys []string) []string {
	names := make([]string, len(keys))
	for i, key := range keys {
		names[i] = key
		if ing, ok := s.kb.Ingredient(key); ok {
			if v, ok := ing.Form(missingNameForm); ok {
				names[i] = v
			}
		}
	}
	return names
}

func (s *Service) partialHint(r *knowledge.Recipe, missingNames []string) string {
	name := r.Title
	if name == "" {
		name = fallbackRecipeName
	}
	tpl := s.kb.Phrases().Rejections.PartialMatchFound.Pick(s.rng, fallbackPartialHint)
	return strings.NewReplacer(
		"{RecipeName}", name,
		"{MissingIngredients}", common.StringSliceToString(missingNames),
	).Replace(tpl)
}

// Assemble 渲染食譜並掃描最終文字中的術語
func (s *Service) Assemble(r *knowledge.Recipe) Assembled {
	text := s.renderer.Render(r, s.rng)
	found := s.scanner.Scan(text)
	if found == nil {
		found = []string{}
	}
	return Assembled{
		RecipeID:   r.ID,
		Title:      r.Title,
		Text:       text,
		FoundTerms: found,
	}
}

// FindByIntention 依意圖片語直接找食譜
func (s *Service) FindByIntention(query string) (*knowledge.Recipe, bool) {
	return s.matcher.FindByIntention(query)
}

// FindByID 依 id 查詢食譜
func (s *Service) FindByID(id string) (*knowledge.Recipe, bool) {
	return s.kb.RecipeByID(id)
}

// FindRandomByCategory 在指定類別中隨機挑一個食譜
func (s *Service) FindRandomByCategory(category string) (*knowledge.Recipe, bool) {
	return s.pick("category", category, func(r *knowledge.Recipe) bool { return r.Category == category })
}

// FindRandomByCuisine 在指定料理風格中隨機挑一個食譜
func (s *Service) FindRandomByCuisine(cuisine string) (*knowledge.Recipe, bool) {
	return s.pick("cuisine", cuisine, func(r *knowledge.Recipe) bool { return r.Cuisine == cuisine })
}

func (s *Service) pick(field, value string, pred func(*knowledge.Recipe) bool) (*knowledge.Recipe, bool) {
	var candidates []*knowledge.Recipe
	if value != "" {
		candidates = s.kb.RecipesWhere(pred)
	}
	if len(candidates) == 0 {
		common.LogWarn("no recipes for filter", zap.String(field, value))
		return nil, false
	}
	chosen := candidates[s.rng.IntN(len(candidates))]
	common.LogInfo("random recipe chosen", zap.String(field, value), zap.String("recipe_id", chosen.ID))
	return chosen, true
}

// ListCuisines 不重複的料理風格，依字母排序
func (s *Service) ListCuisines() []string {
	return s.kb.Cuisines()
}

// ListCategories 不重複的類別，依字母排序
func (s *Service) ListCategories() []string {
	return s.kb.Categories()
}

// Related 解析相關食譜，找不到的 id 記錄為資料一致性錯誤並略過
func (s *Service) Related(r *knowledge.Recipe) []*knowledge.Recipe {
	out := make([]*knowledge.Recipe, 0, len(r.RelatedRecipes))
	for _, id := range r.RelatedRecipes {
		rel, ok := s.kb.RecipeByID(id)
		if !ok {
			common.LogDataConsistency("related recipe not found",
				zap.String("recipe_id", r.ID),
				zap.String("related_id", id),
			)
			continue
		}
		out = append(out, rel)
	}
	return out
}

// ExplainTerm 術語解釋
func (s *Service) ExplainTerm(id string) (string, bool) {
	return s.scanner.Explain(id, s.rng)
}
