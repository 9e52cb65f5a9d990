// Package match 判斷哪個食譜最符合抽取到的食材。
package match

import (
	"sort"
	"strings"

	"recipe-synthesizer/internal/core/extract"
	"recipe-synthesizer/internal/core/knowledge"
	"recipe-synthesizer/internal/core/textnorm"
	"recipe-synthesizer/internal/pkg/common"

	"go.uber.org/zap"
)

// 部分符合的門檻
const (
	MaxMissing = 2
	MaxOptions = 3
)

// Status 分類結果
type Status string

const (
	StatusPerfect        Status = "perfect"
	StatusPartialOptions Status = "partial_options"
	StatusNone           Status = "none"
)

// Candidate 單一食譜與抽取集合的比較
type Candidate struct {
	Recipe  *knowledge.Recipe
	Matches []string
	Missing []string
	Excess  []string
}

// MatchCount 符合的鍵數
func (c Candidate) MatchCount() int { return len(c.Matches) }

// Result 分類結果；Perfect 時 Recipe 有值，PartialOptions 時 Options 有值
type Result struct {
	Status  Status
	Recipe  *knowledge.Recipe
	Options []Candidate
}

// intentionAlias 預先正規化的意圖片語
type intentionAlias struct {
	text   string
	recipe *knowledge.Recipe
}

// Matcher 建立後唯讀
type Matcher struct {
	kb         *knowledge.KnowledgeBase
	intentions []intentionAlias
}

// NewMatcher 創建比對器並預先正規化所有意圖片語
func NewMatcher(kb *knowledge.KnowledgeBase) *Matcher {
	m := &Matcher{kb: kb}
	for _, r := range kb.Recipes() {
		for _, alias := range r.IntentionAliases {
			text := textnorm.Normalize(alias)
			if text == "" {
				continue
			}
			m.intentions = append(m.intentions, intentionAlias{text: text, recipe: r})
		}
	}
	return m
}

// FindByIntention 依食譜順序尋找第一個出現在 query 中的意圖片語
func (m *Matcher) FindByIntention(query string) (*knowledge.Recipe, bool) {
	q := textnorm.Normalize(query)
	if q == "" {
		return nil, false
	}
	for _, in := range m.intentions {
		if strings.Contains(q, in.text) {
			common.LogDebug("intention matched",
				zap.String("recipe_id", in.recipe.ID),
				zap.String("alias", in.text),
			)
			return in.recipe, true
		}
	}
	return nil, false
}

// Compare 計算單一食譜的符合、缺少與多餘的鍵
func Compare(r *knowledge.Recipe, found extract.Result) Candidate {
	c := Candidate{Recipe: r}
	triggers := make(map[string]struct{}, len(r.TriggerKeys))
	for _, key := range r.TriggerKeys {
		if _, dup := triggers[key]; dup {
			continue
		}
		triggers[key] = struct{}{}
		if found.Has(key) {
			c.Matches = append(c.Matches, key)
		} else {
			c.Missing = append(c.Missing, key)
		}
	}
	for _, key := range found.Keys() {
		if _, ok := triggers[key]; !ok {
			c.Excess = append(c.Excess, key)
		}
	}
	sort.Strings(c.Matches)
	sort.Strings(c.Missing)
	sort.Strings(c.Excess)
	return c
}

// better 依 (符合數 多, 缺少數 少, 多餘數 少, 優先度 高) 比較
func better(a, b Candidate) bool {
	if len(a.Matches) != len(b.Matches) {
		return len(a.Matches) > len(b.Matches)
	}
	if len(a.Missing) != len(b.Missing) {
		return len(a.Missing) < len(b.Missing)
	}
	if len(a.Excess) != len(b.Excess) {
		return len(a.Excess) < len(b.Excess)
	}
	return a.Recipe.Priority > b.Recipe.Priority
}

// Match 分類抽取結果。只要有完全符合就忽略部分符合；
// 完全符合取優先度最高者，同分取載入順序較前者。
func (m *Matcher) Match(found extract.Result) Result {
	var perfect *knowledge.Recipe
	var partial []Candidate

	for _, r := range m.kb.Recipes() {
		if len(r.TriggerKeys) == 0 {
			continue
		}
		c := Compare(r, found)
		if len(c.Missing) == 0 {
			if perfect == nil || r.Priority > perfect.Priority {
				perfect = r
			}
			continue
		}
		if len(c.Matches) > 0 && len(c.Missing) <= MaxMissing {
			partial = append(partial, c)
		}
	}

	if perfect != nil {
		common.LogDebug("perfect match", zap.String("recipe_id", perfect.ID))
		return Result{Status: StatusPerfect, Recipe: perfect}
	}

	sort.SliceStable(partial, func(i, j int) bool {
		return better(partial[i], partial[j])
	})

	var options []Candidate
	for _, c := range partial {
		if c.MatchCount() > 0 {
			options = append(options, c)
		}
		if len(options) >= MaxOptions {
			break
		}
	}

	if len(options) > 0 {
		ids := make([]string, len(options))
		for i, o := range options {
			ids[i] = o.Recipe.ID
		}
		common.LogDebug("partial matches", zap.Strings("recipe_ids", ids))
		return Result{Status: StatusPartialOptions, Options: options}
	}

	common.LogDebug("no match", zap.Strings("keys", found.Keys()))
	return Result{Status: StatusNone}
}
