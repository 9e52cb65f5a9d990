package knowledge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"recipe-synthesizer/internal/pkg/common"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	ingredientSuffix = "_ingredients"
	recipeSuffix     = "_recipes"
	phrasesName      = "phrases"
	termsName        = "terms"
)

var dataExtensions = []string{".json", ".yaml", ".yml"}

// LoadDir 從目錄載入知識庫
func LoadDir(dir string) (*KnowledgeBase, *Report, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("knowledge: data dir: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("knowledge: data dir %q is not a directory", dir)
	}
	return Load(os.DirFS(dir))
}

// Load 讀取 fsys 根目錄下的資料片段：
// *_ingredients.* 依檔名順序合併，*_recipes.* 依檔名順序串接，
// phrases.* 與 terms.* 各一份。
func Load(fsys fs.FS) (*KnowledgeBase, *Report, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, nil, fmt.Errorf("knowledge: read data dir: %w", err)
	}
	// fs.ReadDir 已依檔名排序
	b := NewBuilder()
	var phrasesFile, termsFile string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		base, ok := dataBase(name)
		if !ok {
			continue
		}

		switch {
		case strings.HasSuffix(base, ingredientSuffix):
			fragment, err := readIngredients(fsys, name)
			if err != nil {
				return nil, nil, err
			}
			b.AddIngredients(fragment...)
			common.LogDebug("ingredient fragment loaded", zap.String("file", name), zap.Int("count", len(fragment)))
		case strings.HasSuffix(base, recipeSuffix):
			var fragment []Recipe
			if err := readFile(fsys, name, &fragment); err != nil {
				return nil, nil, err
			}
			b.AddRecipes(fragment...)
			common.LogDebug("recipe fragment loaded", zap.String("file", name), zap.Int("count", len(fragment)))
		case base == phrasesName:
			if phrasesFile != "" {
				return nil, nil, fmt.Errorf("knowledge: more than one phrase bank (%s, %s)", phrasesFile, name)
			}
			phrasesFile = name
		case base == termsName:
			if termsFile != "" {
				return nil, nil, fmt.Errorf("knowledge: more than one term list (%s, %s)", termsFile, name)
			}
			termsFile = name
		}
	}

	if phrasesFile != "" {
		var phrases PhraseBank
		if err := readFile(fsys, phrasesFile, &phrases); err != nil {
			return nil, nil, err
		}
		b.SetPhrases(phrases)
	}

	if termsFile != "" {
		var terms []Term
		if err := readFile(fsys, termsFile, &terms); err != nil {
			return nil, nil, err
		}
		b.SetTerms(terms...)
	}

	kb, report, err := b.Build()
	if err != nil {
		return nil, report, err
	}
	return kb, report, nil
}

// dataBase 回傳去除副檔名後的檔名，非資料檔回傳 false
func dataBase(name string) (string, bool) {
	ext := strings.ToLower(path.Ext(name))
	for _, e := range dataExtensions {
		if ext == e {
			return strings.TrimSuffix(name, path.Ext(name)), true
		}
	}
	return "", false
}

func isYAML(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func readAll(fsys fs.FS, name string) ([]byte, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("knowledge: read %s: %w", name, err)
	}
	return data, nil
}

// readFile 依副檔名解析 JSON 或 YAML
func readFile(fsys fs.FS, name string, v interface{}) error {
	data, err := readAll(fsys, name)
	if err != nil {
		return err
	}
	if isYAML(name) {
		err = yaml.Unmarshal(data, v)
	} else {
		err = common.ParseJSONBytes(data, v)
	}
	if err != nil {
		return fmt.Errorf("knowledge: parse %s: %w", name, err)
	}
	return nil
}

// readIngredients 解析以食材鍵為鍵的物件，保留檔案中的鍵順序
func readIngredients(fsys fs.FS, name string) ([]Ingredient, error) {
	data, err := readAll(fsys, name)
	if err != nil {
		return nil, err
	}
	var fragment []Ingredient
	if isYAML(name) {
		fragment, err = decodeIngredientsYAML(data)
	} else {
		fragment, err = decodeIngredientsJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("knowledge: parse %s: %w", name, err)
	}
	return fragment, nil
}

func decodeIngredientsJSON(data []byte) ([]Ingredient, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("ingredient fragment must be an object keyed by ingredient key")
	}

	var out []Ingredient
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var ing Ingredient
		if err := dec.Decode(&ing); err != nil {
			return nil, fmt.Errorf("ingredient %q: %w", key, err)
		}
		ing.Key = key
		out = append(out, ing)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected extra JSON data")
	}
	return out, nil
}

func decodeIngredientsYAML(data []byte) ([]Ingredient, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("ingredient fragment must be a mapping keyed by ingredient key")
	}

	out := make([]Ingredient, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		var ing Ingredient
		if err := root.Content[i+1].Decode(&ing); err != nil {
			return nil, fmt.Errorf("ingredient %q: %w", key, err)
		}
		ing.Key = key
		out = append(out, ing)
	}
	return out, nil
}

// SortedNames 供 CLI 顯示資料目錄中被辨識的檔案
func SortedNames(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if _, ok := dataBase(e.Name()); ok && !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
