package knowledge

import (
	"encoding/json"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalPhrases() PhraseBank {
	return PhraseBank{
		Rejections: Rejections{
			NoIngredientsFound: Phrases{"nothing"},
			NoRecipeFound:      Phrases{"no recipe"},
		},
	}
}

func TestBuilder_LastWriteWins(t *testing.T) {
	kb, _, err := NewBuilder().
		AddIngredients(
			Ingredient{Key: "milk", Aliases: []string{"молоко"}},
			Ingredient{Key: "egg"},
		).
		AddIngredients(Ingredient{Key: "milk", Aliases: []string{"молочко"}}).
		AddRecipes(Recipe{ID: "r1", TriggerKeys: []string{"milk"}}).
		SetPhrases(minimalPhrases()).
		Build()
	require.NoError(t, err)

	milk, ok := kb.Ingredient("milk")
	require.True(t, ok)
	assert.Equal(t, []string{"молочко"}, milk.Aliases)

	// 覆蓋後仍保留第一次出現的位置
	ings := kb.Ingredients()
	require.Len(t, ings, 2)
	assert.Equal(t, "milk", ings[0].Key)
	assert.Equal(t, "egg", ings[1].Key)
}

func TestBuilder_FatalEmpties(t *testing.T) {
	_, _, err := NewBuilder().
		AddRecipes(Recipe{ID: "r1"}).
		SetPhrases(minimalPhrases()).
		Build()
	assert.ErrorIs(t, err, ErrNoIngredients)

	_, _, err = NewBuilder().
		AddIngredients(Ingredient{Key: "milk"}).
		SetPhrases(minimalPhrases()).
		Build()
	assert.ErrorIs(t, err, ErrNoRecipes)

	_, _, err = NewBuilder().
		AddIngredients(Ingredient{Key: "milk"}).
		AddRecipes(Recipe{ID: "r1"}).
		Build()
	assert.ErrorIs(t, err, ErrNoPhrases)
}

func TestBuilder_WarningsAreNonFatal(t *testing.T) {
	kb, report, err := NewBuilder().
		AddIngredients(Ingredient{Key: "milk"}).
		AddRecipes(
			Recipe{ID: "r1", TriggerKeys: []string{"milk", "ghost"}, RelatedRecipes: []string{"missing"}},
			Recipe{ID: "r1", Title: "dup"},
		).
		SetPhrases(minimalPhrases()).
		Build()
	require.NoError(t, err)
	require.NotNil(t, kb)

	assert.Contains(t, report.Warnings, `recipe "r1" triggers on unknown ingredient "ghost"`)
	assert.Contains(t, report.Warnings, `recipe "r1" relates to unknown recipe "missing"`)
	assert.Contains(t, report.Warnings, `duplicate recipe id "r1", lookups return the first one`)
	assert.Contains(t, report.Warnings, "term list is empty, term explanations are disabled")

	r, ok := kb.RecipeByID("r1")
	require.True(t, ok)
	assert.Empty(t, r.Title)
}

func TestKnowledgeBase_CuisinesAndCategories(t *testing.T) {
	kb, _, err := NewBuilder().
		AddIngredients(Ingredient{Key: "milk"}).
		AddRecipes(
			Recipe{ID: "a", Category: "soup", Cuisine: "russian"},
			Recipe{ID: "b", Category: "dessert", Cuisine: "french"},
			Recipe{ID: "c", Category: "soup"},
			Recipe{ID: "d", Category: "soup", Cuisine: "russian"},
		).
		SetPhrases(minimalPhrases()).
		Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"french", "russian"}, kb.Cuisines())
	assert.Equal(t, []string{"dessert", "soup"}, kb.Categories())
	assert.Equal(t, Stats{Ingredients: 1, Recipes: 4, Cuisines: 2, Categories: 2}, kb.Stats())
}

func TestLoad_FragmentsInFileOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"a_ingredients.json": {Data: []byte(`{
			"milk": {"aliases": ["молоко"], "name_forms": {"nom_sg": "молоко"}},
			"egg": {"aliases": ["яйцо"]}
		}`)},
		"b_ingredients.yaml": {Data: []byte(`
milk:
  aliases: [молочко]
  scientific_name: Lac
flour:
  aliases: [мука]
`)},
		"a_recipes.json": {Data: []byte(`[
			{"id": "pancakes", "title": "Блины", "category": "breakfast", "trigger_keys": ["milk", "egg", "flour"],
			 "templates": {"reagents": "{milk}", "procedure": ["шаг"], "effects": "ok"}}
		]`)},
		"b_recipes.yml": {Data: []byte(`
- id: omelette
  title: Омлет
  category: breakfast
  cuisine: french
  priority: 2
  trigger_keys: [egg, milk]
  templates:
    reagents: "{egg}"
    procedure: "просто жарь"
    effects: ""
`)},
		"phrases.json": {Data: []byte(`{
			"rejection_phrases": {
				"no_ingredients_found": "Пусто.",
				"partial_match_found": ["A {RecipeName}", "B {RecipeName}"],
				"no_recipe_found": "Ничего."
			},
			"sarcastic_comments": ["ха"]
		}`)},
		"terms.json": {Data: []byte(`[
			{"term_id": "blanch", "aliases": ["бланшировать"], "explanation": "кипяток", "sarcastic_comments": ["ну"]}
		]`)},
		"README.md": {Data: []byte("ignored")},
	}

	kb, report, err := Load(fsys)
	require.NoError(t, err)
	assert.Empty(t, report.Warnings)

	milk, _ := kb.Ingredient("milk")
	assert.Equal(t, []string{"молочко"}, milk.Aliases)
	require.NotNil(t, milk.ScientificName)
	assert.Equal(t, "Lac", *milk.ScientificName)

	var keys []string
	for _, ing := range kb.Ingredients() {
		keys = append(keys, ing.Key)
	}
	assert.Equal(t, []string{"milk", "egg", "flour"}, keys)

	recipes := kb.Recipes()
	require.Len(t, recipes, 2)
	assert.Equal(t, "pancakes", recipes[0].ID)
	assert.Equal(t, "omelette", recipes[1].ID)
	assert.True(t, recipes[0].Templates.Procedure.Stepped)
	assert.Equal(t, []string{"шаг"}, recipes[0].Templates.Procedure.Steps)
	assert.False(t, recipes[1].Templates.Procedure.Stepped)
	assert.Equal(t, "просто жарь", recipes[1].Templates.Procedure.Text)
	assert.Equal(t, 2, recipes[1].Priority)

	phrases := kb.Phrases()
	assert.Equal(t, Phrases{"Пусто."}, phrases.Rejections.NoIngredientsFound)
	assert.Len(t, phrases.Rejections.PartialMatchFound, 2)

	term, ok := kb.Term("blanch")
	require.True(t, ok)
	assert.Equal(t, "кипяток", term.Explanation)
}

func TestLoad_MissingTermsIsWarning(t *testing.T) {
	fsys := fstest.MapFS{
		"x_ingredients.json": {Data: []byte(`{"milk": {}}`)},
		"x_recipes.json":     {Data: []byte(`[{"id": "r", "trigger_keys": ["milk"]}]`)},
		"phrases.json":       {Data: []byte(`{"rejection_phrases": {}}`)},
	}

	kb, report, err := Load(fsys)
	require.NoError(t, err)
	assert.NotNil(t, kb)
	assert.Contains(t, report.Warnings, "term list is empty, term explanations are disabled")
}

func TestLoad_FatalErrors(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
		is   error
	}{
		{
			name: "no ingredients",
			fsys: fstest.MapFS{
				"x_recipes.json": {Data: []byte(`[{"id": "r"}]`)},
				"phrases.json":   {Data: []byte(`{}`)},
			},
			is: ErrNoIngredients,
		},
		{
			name: "empty recipe fragment",
			fsys: fstest.MapFS{
				"x_ingredients.json": {Data: []byte(`{"milk": {}}`)},
				"x_recipes.json":     {Data: []byte(`[]`)},
				"phrases.json":       {Data: []byte(`{}`)},
			},
			is: ErrNoRecipes,
		},
		{
			name: "no phrase bank",
			fsys: fstest.MapFS{
				"x_ingredients.json": {Data: []byte(`{"milk": {}}`)},
				"x_recipes.json":     {Data: []byte(`[{"id": "r"}]`)},
			},
			is: ErrNoPhrases,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Load(tt.fsys)
			assert.ErrorIs(t, err, tt.is)
		})
	}
}

func TestLoad_MalformedFragment(t *testing.T) {
	fsys := fstest.MapFS{
		"x_ingredients.json": {Data: []byte(`["milk"]`)},
	}
	_, _, err := Load(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "x_ingredients.json")
}

func TestProcedure_JSONRoundTrip(t *testing.T) {
	var tpl Templates
	require.NoError(t, json.Unmarshal([]byte(`{"procedure": ["a", "b"]}`), &tpl))
	assert.Equal(t, StepsOf("a", "b"), tpl.Procedure)

	out, err := json.Marshal(tpl.Procedure)
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, string(out))

	require.NoError(t, json.Unmarshal([]byte(`{"procedure": "one"}`), &tpl))
	assert.Equal(t, TextOf("one"), tpl.Procedure)
}

func TestPhrases_Pick(t *testing.T) {
	rng := NewSeededRand(1)
	assert.Equal(t, "fallback", Phrases(nil).Pick(rng, "fallback"))
	assert.Equal(t, "only", Phrases{"only"}.Pick(rng, "fallback"))
	assert.Contains(t, []string{"a", "b"}, Phrases{"a", "b"}.Pick(rng, ""))
}
