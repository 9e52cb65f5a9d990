// Package terms 在渲染後的文字中找出術語表中的詞。
package terms

import (
	"strings"

	"recipe-synthesizer/internal/core/knowledge"
	"recipe-synthesizer/internal/core/textnorm"
	"recipe-synthesizer/internal/pkg/common"

	"go.uber.org/zap"
)

type entry struct {
	term    *knowledge.Term
	aliases [][]rune
}

// Scanner 建立後唯讀
type Scanner struct {
	entries []entry
	byID    map[string]*knowledge.Term
}

// NewScanner 依術語表順序預先正規化所有別名
func NewScanner(kb *knowledge.KnowledgeBase) *Scanner {
	s := &Scanner{byID: make(map[string]*knowledge.Term)}
	for _, t := range kb.Terms() {
		e := entry{term: t}
		for _, alias := range t.Aliases {
			if a := textnorm.Normalize(alias); a != "" {
				e.aliases = append(e.aliases, []rune(a))
			}
		}
		s.entries = append(s.entries, e)
		s.byID[t.ID] = t
	}
	return s
}

// Scan 回傳 text 中以完整詞出現的術語 id，依術語表順序且不重複
func (s *Scanner) Scan(text string) []string {
	if len(s.entries) == 0 || text == "" {
		return nil
	}
	haystack := []rune(textnorm.Normalize(text))

	var found []string
	for _, e := range s.entries {
		for _, alias := range e.aliases {
			if textnorm.IndexWord(haystack, alias, 0) >= 0 {
				found = append(found, e.term.ID)
				break
			}
		}
	}
	if len(found) > 0 {
		common.LogDebug("terms found", zap.Strings("term_ids", found))
	}
	return found
}

// Explain 組出術語解釋，後面接一句隨機的諷刺評語
func (s *Scanner) Explain(id string, rng knowledge.Rand) (string, bool) {
	t, ok := s.byID[id]
	if !ok {
		return "", false
	}
	parts := []string{t.Explanation}
	if c := knowledge.Phrases(t.SarcasticComments).Pick(rng, ""); c != "" {
		parts = append(parts, "<i>"+c+"</i>")
	}
	return strings.Join(parts, "\n\n"), true
}
