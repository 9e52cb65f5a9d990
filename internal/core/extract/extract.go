// Package extract 從任意文字中找出已知食材的鍵。
//
// 索引在知識庫載入後建立一次。別名依正規化後的長度由長到短排列，
// 長度相同時保持原本順序，因此多詞別名一定比它包含的短別名先被嘗試。
package extract

import (
	"sort"
	"unicode/utf8"

	"recipe-synthesizer/internal/core/knowledge"
	"recipe-synthesizer/internal/core/textnorm"
	"recipe-synthesizer/internal/pkg/common"

	"go.uber.org/zap"
)

// Alias 正規化後的別名與其食材鍵
type Alias struct {
	Text  string
	Key   string
	runes []rune
}

// Index 依長度排序的別名表，建立後唯讀
type Index struct {
	aliases []Alias
}

// NewIndex 從知識庫的食材表建立索引，食材鍵本身也是別名
func NewIndex(kb *knowledge.KnowledgeBase) *Index {
	var aliases []Alias
	for _, ing := range kb.Ingredients() {
		for _, a := range ing.Aliases {
			aliases = appendAlias(aliases, a, ing.Key)
		}
		aliases = appendAlias(aliases, ing.Key, ing.Key)
	}

	sort.SliceStable(aliases, func(i, j int) bool {
		return len(aliases[i].runes) > len(aliases[j].runes)
	})

	common.LogDebug("alias index built", zap.Int("aliases", len(aliases)))
	return &Index{aliases: aliases}
}

func appendAlias(list []Alias, surface, key string) []Alias {
	text := textnorm.Normalize(surface)
	if text == "" {
		return list
	}
	return append(list, Alias{Text: text, Key: key, runes: []rune(text)})
}

// Aliases 依比對順序列出別名
func (x *Index) Aliases() []Alias {
	return x.aliases
}

// Len 別名數量
func (x *Index) Len() int {
	return len(x.aliases)
}

// Result 抽取結果，鍵不重複
type Result struct {
	order []string
	set   map[string]struct{}
}

// NewResult 以指定的鍵建立結果，供測試與直接指定食材的呼叫端使用
func NewResult(keys ...string) Result {
	r := Result{set: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		r.add(k)
	}
	return r
}

func (r *Result) add(key string) {
	if r.set == nil {
		r.set = make(map[string]struct{})
	}
	if _, ok := r.set[key]; ok {
		return
	}
	r.set[key] = struct{}{}
	r.order = append(r.order, key)
}

// Has 是否包含該鍵
func (r Result) Has(key string) bool {
	_, ok := r.set[key]
	return ok
}

// Len 鍵的數量
func (r Result) Len() int {
	return len(r.order)
}

// Empty 是否沒有找到任何食材
func (r Result) Empty() bool {
	return len(r.order) == 0
}

// Keys 依發現順序列出鍵
func (r Result) Keys() []string {
	return append([]string(nil), r.order...)
}

// Extract 找出 text 中出現的食材鍵。
// 每個別名只找第一個完整詞出現位置，找到後把該段文字塗成空白，
// 之後較短的別名就不會再比對到已被消耗的片段。
func (x *Index) Extract(text string) Result {
	normalized := textnorm.Normalize(text)
	working := make([]rune, 0, utf8.RuneCountInString(normalized)+2)
	working = append(working, ' ')
	working = append(working, []rune(normalized)...)
	working = append(working, ' ')

	var result Result
	for _, alias := range x.aliases {
		pos := textnorm.IndexWord(working, alias.runes, 0)
		if pos < 0 {
			continue
		}
		result.add(alias.Key)
		for i := pos; i < pos+len(alias.runes); i++ {
			working[i] = ' '
		}
	}

	common.LogDebug("ingredients extracted", zap.Strings("keys", result.order))
	return result
}
