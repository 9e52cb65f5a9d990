package knowledge

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Ingredient 食材記錄，Key 來自片段檔中的物件鍵
type Ingredient struct {
	Key            string            `json:"-" yaml:"-"`
	Aliases        []string          `json:"aliases" yaml:"aliases"`
	NameForms      map[string]string `json:"name_forms" yaml:"name_forms"`
	ScientificName *string           `json:"scientific_name,omitempty" yaml:"scientific_name,omitempty"`
}

// Form 取得指定格的詞形
func (i *Ingredient) Form(form string) (string, bool) {
	v, ok := i.NameForms[form]
	return v, ok
}

// Recipe 食譜記錄
type Recipe struct {
	ID               string    `json:"id" yaml:"id"`
	Title            string    `json:"title" yaml:"title"`
	Category         string    `json:"category" yaml:"category"`
	Cuisine          string    `json:"cuisine,omitempty" yaml:"cuisine,omitempty"`
	TriggerKeys      []string  `json:"trigger_keys" yaml:"trigger_keys"`
	Priority         int       `json:"priority,omitempty" yaml:"priority,omitempty"`
	Templates        Templates `json:"templates" yaml:"templates"`
	IntentionAliases []string  `json:"intention_aliases,omitempty" yaml:"intention_aliases,omitempty"`
	RelatedRecipes   []string  `json:"related_recipes,omitempty" yaml:"related_recipes,omitempty"`
}

// Templates 食譜的三段模板
type Templates struct {
	Reagents  string    `json:"reagents" yaml:"reagents"`
	Procedure Procedure `json:"procedure" yaml:"procedure"`
	Effects   string    `json:"effects" yaml:"effects"`
}

// Procedure 步驟可寫成字串陣列（逐步編號）或單一字串（原樣輸出）
type Procedure struct {
	Steps   []string
	Text    string
	Stepped bool
}

// StepsOf 建立逐步編號的步驟
func StepsOf(steps ...string) Procedure {
	return Procedure{Steps: steps, Stepped: true}
}

// TextOf 建立單一字串的步驟
func TextOf(text string) Procedure {
	return Procedure{Text: text}
}

// UnmarshalJSON 接受字串、字串陣列或 null
func (p *Procedure) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*p = Procedure{Stepped: true}
		return nil
	case data[0] == '[':
		var steps []string
		if err := json.Unmarshal(data, &steps); err != nil {
			return fmt.Errorf("procedure steps: %w", err)
		}
		*p = StepsOf(steps...)
		return nil
	default:
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("procedure text: %w", err)
		}
		*p = TextOf(text)
		return nil
	}
}

// MarshalJSON 依原本的寫法輸出
func (p Procedure) MarshalJSON() ([]byte, error) {
	if p.Stepped {
		if p.Steps == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(p.Steps)
	}
	return json.Marshal(p.Text)
}

// UnmarshalYAML 接受純量或序列
func (p *Procedure) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var steps []string
		if err := value.Decode(&steps); err != nil {
			return fmt.Errorf("procedure steps: %w", err)
		}
		*p = StepsOf(steps...)
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*p = Procedure{Stepped: true}
			return nil
		}
		*p = TextOf(value.Value)
	default:
		return fmt.Errorf("procedure: unsupported yaml node kind %d", value.Kind)
	}
	return nil
}

// Term 術語表記錄
type Term struct {
	ID                string   `json:"term_id" yaml:"term_id"`
	Aliases           []string `json:"aliases" yaml:"aliases"`
	Explanation       string   `json:"explanation" yaml:"explanation"`
	SarcasticComments []string `json:"sarcastic_comments" yaml:"sarcastic_comments"`
}

// Phrases 一個或多個候選句，多個時隨機挑選
type Phrases []string

// UnmarshalJSON 接受單一字串或字串陣列
func (p *Phrases) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*p = list
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*p = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*p = Phrases{s}
	return nil
}

// UnmarshalYAML 接受純量或序列
func (p *Phrases) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*p = list
		return nil
	}
	*p = Phrases{value.Value}
	return nil
}

// Pick 隨機挑一句，沒有候選時回傳 fallback
func (p Phrases) Pick(rng Rand, fallback string) string {
	if len(p) == 0 {
		return fallback
	}
	return p[rng.IntN(len(p))]
}

// PhraseBank 固定類別的句庫
type PhraseBank struct {
	Rejections        Rejections `json:"rejection_phrases" yaml:"rejection_phrases"`
	SarcasticComments Phrases    `json:"sarcastic_comments" yaml:"sarcastic_comments"`
}

// Rejections 各種無法給出食譜時的回覆
type Rejections struct {
	NoIngredientsFound Phrases `json:"no_ingredients_found" yaml:"no_ingredients_found"`
	PartialMatchFound  Phrases `json:"partial_match_found" yaml:"partial_match_found"`
	NoRecipeFound      Phrases `json:"no_recipe_found" yaml:"no_recipe_found"`
}
