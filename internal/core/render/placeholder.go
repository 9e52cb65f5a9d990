package render

import (
	"strings"

	"recipe-synthesizer/internal/core/textnorm"
)

// Placeholder 模板中的 {key} 或 {key:form}
type Placeholder struct {
	Raw  string
	Key  string
	Form string
}

// segment 模板切分後的片段，Placeholder 為 nil 時是原樣文字
type segment struct {
	text        string
	placeholder *Placeholder
}

// parse 把模板切成文字與佔位符。key 與 form 都必須是詞字元，
// form 可省略，冒號後留空等同省略；其餘大括號內容都視為文字。
func parse(template string) []segment {
	runes := []rune(template)
	var (
		segs []segment
		lit  strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(runes); {
		if runes[i] == '{' {
			if p, next, ok := scanPlaceholder(runes, i); ok {
				flush()
				segs = append(segs, segment{placeholder: &p})
				i = next
				continue
			}
		}
		lit.WriteRune(runes[i])
		i++
	}
	flush()
	return segs
}

// scanPlaceholder 從 runes[start]（必為 '{'）嘗試讀出佔位符，回傳結束後的位置
func scanPlaceholder(runes []rune, start int) (Placeholder, int, bool) {
	i := start + 1
	keyStart := i
	for i < len(runes) && textnorm.IsWordRune(runes[i]) {
		i++
	}
	if i == keyStart {
		return Placeholder{}, start, false
	}
	key := string(runes[keyStart:i])

	var form string
	if i < len(runes) && runes[i] == ':' {
		i++
		formStart := i
		for i < len(runes) && textnorm.IsWordRune(runes[i]) {
			i++
		}
		form = string(runes[formStart:i])
	}

	if i >= len(runes) || runes[i] != '}' {
		return Placeholder{}, start, false
	}
	i++
	return Placeholder{Raw: string(runes[start:i]), Key: key, Form: form}, i, true
}

// Placeholders 列出模板中所有佔位符
func Placeholders(template string) []Placeholder {
	var out []Placeholder
	for _, s := range parse(template) {
		if s.placeholder != nil {
			out = append(out, *s.placeholder)
		}
	}
	return out
}
