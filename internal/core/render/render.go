// Package render 把食譜模板與知識庫組合成最終文字。
//
// 渲染是純函式：相同的食譜、知識庫與隨機抽取結果一定產生相同的文字。
package render

import (
	"fmt"
	"strconv"
	"strings"

	"recipe-synthesizer/internal/core/knowledge"
	"recipe-synthesizer/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	// DefaultTitle 食譜沒有標題時使用
	DefaultTitle = "Эксперимент без названия"
	// DefaultForm 佔位符沒有指定格時使用的主格單數
	DefaultForm = "nom_sg"
	// ScientificForm 要求學名的特殊格
	ScientificForm = "scientific_name"

	sarcasticKey  = "sarcasticcomment"
	stepLabel     = "👨‍🍳 Шаг "
	sectionJoiner = "\n\n"
)

// Renderer 建立後唯讀，可併發使用
type Renderer struct {
	kb *knowledge.KnowledgeBase
}

// New 創建渲染器
func New(kb *knowledge.KnowledgeBase) *Renderer {
	return &Renderer{kb: kb}
}

// Render 依序輸出標題、材料、步驟與效果，段落之間空一行
func (r *Renderer) Render(recipe *knowledge.Recipe, rng knowledge.Rand) string {
	title := recipe.Title
	if title == "" {
		title = DefaultTitle
	}

	sections := []string{
		"<b>" + title + "</b>",
		r.Fill(recipe.Templates.Reagents, rng),
		r.procedure(recipe.Templates.Procedure, rng),
		r.Fill(recipe.Templates.Effects, rng),
	}

	common.LogDebug("recipe rendered", zap.String("recipe_id", recipe.ID))
	return strings.Join(sections, sectionJoiner)
}

func (r *Renderer) procedure(p knowledge.Procedure, rng knowledge.Rand) string {
	if !p.Stepped {
		return r.Fill(p.Text, rng)
	}
	steps := make([]string, len(p.Steps))
	for i, step := range p.Steps {
		steps[i] = stepLabel + strconv.Itoa(i+1) + ": " + r.Fill(step, rng)
	}
	return strings.Join(steps, sectionJoiner)
}

// Fill 替換單一模板中的所有佔位符
func (r *Renderer) Fill(template string, rng knowledge.Rand) string {
	if template == "" {
		return ""
	}
	var b strings.Builder
	for _, s := range parse(template) {
		if s.placeholder == nil {
			b.WriteString(s.text)
			continue
		}
		b.WriteString(r.resolve(*s.placeholder, rng))
	}
	return b.String()
}

// resolve 三種情況：諷刺評語、已知食材、未知鍵
func (r *Renderer) resolve(p Placeholder, rng knowledge.Rand) string {
	switch {
	case isSarcastic(p.Key):
		return r.kb.Phrases().SarcasticComments.Pick(rng, "")

	case r.hasIngredient(p.Key):
		ing, _ := r.kb.Ingredient(p.Key)
		form := p.Form
		if form == "" {
			form = DefaultForm
		}
		if form == ScientificForm {
			// 有欄位就照用，即使是空字串
			if ing.ScientificName != nil {
				return *ing.ScientificName
			}
			return ing.Key
		}
		if v, ok := ing.Form(form); ok {
			return v
		}
		return ing.Key

	default:
		return p.Raw
	}
}

func (r *Renderer) hasIngredient(key string) bool {
	_, ok := r.kb.Ingredient(key)
	return ok
}

func isSarcastic(key string) bool {
	return strings.EqualFold(key, sarcasticKey)
}

// Lint 找出模板中引用未知食材或缺少詞形的佔位符，只回傳警告文字
func Lint(kb *knowledge.KnowledgeBase) []string {
	var warnings []string
	for _, recipe := range kb.Recipes() {
		for _, tpl := range templatesOf(recipe) {
			for _, p := range Placeholders(tpl) {
				if isSarcastic(p.Key) {
					continue
				}
				ing, ok := kb.Ingredient(p.Key)
				if !ok {
					warnings = append(warnings,
						fmt.Sprintf("recipe %q references unknown ingredient %q in %s", recipe.ID, p.Key, p.Raw))
					continue
				}
				if p.Form == "" || p.Form == ScientificForm {
					continue
				}
				if _, ok := ing.Form(p.Form); !ok {
					warnings = append(warnings,
						fmt.Sprintf("recipe %q uses missing form %q of ingredient %q", recipe.ID, p.Form, p.Key))
				}
			}
		}
	}
	for _, w := range warnings {
		common.LogWarn("knowledge base data defect", zap.String("detail", w))
	}
	return warnings
}

func templatesOf(recipe *knowledge.Recipe) []string {
	t := recipe.Templates
	out := []string{t.Reagents}
	if t.Procedure.Stepped {
		out = append(out, t.Procedure.Steps...)
	} else {
		out = append(out, t.Procedure.Text)
	}
	return append(out, t.Effects)
}
