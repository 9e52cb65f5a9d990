package chef

import (
	"os"
	"path/filepath"
	"testing"

	"recipe-synthesizer/internal/core/knowledge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kitchen(t *testing.T) *Service {
	t.Helper()
	kb, _, err := knowledge.NewBuilder().
		AddIngredients(
			knowledge.Ingredient{Key: "beet", Aliases: []string{"свекла", "свеклу"},
				NameForms: map[string]string{"nom_sg": "свекла", "acc_sg": "свеклу"}},
			knowledge.Ingredient{Key: "cabbage", Aliases: []string{"капуста", "капусту"},
				NameForms: map[string]string{"nom_sg": "капуста", "acc_sg": "капусту"}},
			knowledge.Ingredient{Key: "potato", Aliases: []string{"картошка", "картошку"},
				NameForms: map[string]string{"nom_sg": "картошка", "acc_sg": "картошку"}},
			knowledge.Ingredient{Key: "meat", Aliases: []string{"мясо"},
				NameForms: map[string]string{"nom_sg": "мясо", "acc_sg": "мясо"}},
			knowledge.Ingredient{Key: "egg", Aliases: []string{"яйцо", "яйца"},
				NameForms: map[string]string{"nom_sg": "яйцо"}},
			knowledge.Ingredient{Key: "milk", Aliases: []string{"молоко"},
				NameForms: map[string]string{"nom_sg": "молоко", "acc_sg": "молоко"}},
		).
		AddRecipes(
			knowledge.Recipe{
				ID: "borscht", Title: "Борщ", Category: "soup", Cuisine: "russian",
				TriggerKeys:      []string{"beet", "cabbage", "potato", "meat"},
				IntentionAliases: []string{"борщ"},
				RelatedRecipes:   []string{"omelette", "ghost"},
				Templates: knowledge.Templates{
					Reagents:  "Возьми {beet} и {cabbage}.",
					Procedure: knowledge.StepsOf("Пассеруй {beet:acc_sg}.", "{sarcasticcomment}"),
					Effects:   "Ешь.",
				},
			},
			knowledge.Recipe{
				ID: "omelette", Title: "Омлет", Category: "breakfast", Cuisine: "french",
				TriggerKeys: []string{"egg", "milk"},
				Templates: knowledge.Templates{
					Reagents:  "{egg} и {milk}",
					Procedure: knowledge.TextOf("Взбей и жарь."),
				},
			},
			knowledge.Recipe{
				ID: "fried_egg", Title: "Яичница", Category: "breakfast",
				TriggerKeys: []string{"egg"},
				Templates:   knowledge.Templates{Reagents: "{egg}"},
			},
		).
		SetPhrases(knowledge.PhraseBank{
			Rejections: knowledge.Rejections{
				NoIngredientsFound: knowledge.Phrases{"Я не вижу продуктов."},
				PartialMatchFound:  knowledge.Phrases{"Для «{RecipeName}» не хватает: {MissingIngredients}."},
				NoRecipeFound:      knowledge.Phrases{"Из этого ничего не выйдет."},
			},
			SarcasticComments: knowledge.Phrases{"Гениально."},
		}).
		SetTerms(
			knowledge.Term{ID: "saute", Aliases: []string{"пассеровать", "пассеруй"},
				Explanation: "Обжарить.", SarcasticComments: []string{"Не сожги."}},
		).
		Build()
	require.NoError(t, err)
	return NewService(kb, knowledge.NewSeededRand(1))
}

func TestSynthesize_Garbage(t *testing.T) {
	s := kitchen(t)
	resp := s.Synthesize("qwerty 123")
	assert.Equal(t, KindRejection, resp.Kind)
	assert.Equal(t, ReasonNoIngredients, resp.Reason)
	assert.Equal(t, "Я не вижу продуктов.", resp.Text)
	assert.Empty(t, resp.FoundTerms)
}

func TestSynthesize_Perfect(t *testing.T) {
	s := kitchen(t)
	resp := s.Synthesize("Есть яйца и молоко")
	require.Equal(t, KindRecipe, resp.Kind)
	assert.Equal(t, "omelette", resp.RecipeID)
	assert.Equal(t, "<b>Омлет</b>\n\nяйцо и молоко\n\nВзбей и жарь.\n\n", resp.Text)
	assert.ElementsMatch(t, []string{"egg", "milk"}, resp.Ingredients)
}

func TestSynthesize_PerfectBeatsLargerPartial(t *testing.T) {
	s := kitchen(t)
	// borscht 缺 meat，但 fried_egg 完全符合
	resp := s.Synthesize("свекла, капуста, картошка и яйцо")
	require.Equal(t, KindRecipe, resp.Kind)
	assert.Equal(t, "fried_egg", resp.RecipeID)
}

func TestSynthesize_PartialOptions(t *testing.T) {
	s := kitchen(t)
	resp := s.Synthesize("У меня свекла, капуста и картошка")
	require.Equal(t, KindOptions, resp.Kind)
	require.Len(t, resp.Options, 1)

	opt := resp.Options[0]
	assert.Equal(t, "borscht", opt.RecipeID)
	assert.Equal(t, 3, opt.Matches)
	assert.Equal(t, []string{"meat"}, opt.Missing)
	assert.Equal(t, []string{"мясо"}, opt.MissingNames)
	assert.Equal(t, "Для «Борщ» не хватает: мясо.", opt.Hint)
	assert.Equal(t, opt.Hint, resp.Text)
}

func TestSynthesize_NoRecipe(t *testing.T) {
	s := kitchen(t)
	resp := s.Synthesize("одна картошка")
	assert.Equal(t, KindRejection, resp.Kind)
	assert.Equal(t, ReasonNoRecipe, resp.Reason)
	assert.Equal(t, "Из этого ничего не выйдет.", resp.Text)
	assert.Equal(t, []string{"potato"}, resp.Ingredients)
}

func TestSynthesize_IntentionWinsAndTermsScanned(t *testing.T) {
	s := kitchen(t)
	resp := s.Synthesize("Хочу БОРЩ и яйцо")
	require.Equal(t, KindRecipe, resp.Kind)
	assert.Equal(t, "borscht", resp.RecipeID)
	assert.Contains(t, resp.Text, "👨‍🍳 Шаг 1: Пассеруй свеклу.")
	assert.Contains(t, resp.Text, "👨‍🍳 Шаг 2: Гениально.")
	assert.Equal(t, []string{"saute"}, resp.FoundTerms)
}

func TestFindByIntention_Miss(t *testing.T) {
	s := kitchen(t)
	_, ok := s.FindByIntention("хочу пиццу")
	assert.False(t, ok)
}

func TestFindRandom(t *testing.T) {
	s := kitchen(t)

	r, ok := s.FindRandomByCategory("breakfast")
	require.True(t, ok)
	assert.Contains(t, []string{"omelette", "fried_egg"}, r.ID)

	r, ok = s.FindRandomByCuisine("russian")
	require.True(t, ok)
	assert.Equal(t, "borscht", r.ID)

	_, ok = s.FindRandomByCategory("dessert")
	assert.False(t, ok)
	_, ok = s.FindRandomByCuisine("")
	assert.False(t, ok)
}

func TestListsAndRelated(t *testing.T) {
	s := kitchen(t)
	assert.Equal(t, []string{"french", "russian"}, s.ListCuisines())
	assert.Equal(t, []string{"breakfast", "soup"}, s.ListCategories())

	borscht, ok := s.FindByID("borscht")
	require.True(t, ok)
	related := s.Related(borscht)
	require.Len(t, related, 1)
	assert.Equal(t, "omelette", related[0].ID)

	_, ok = s.FindByID("ghost")
	assert.False(t, ok)
}

func TestExplainTerm(t *testing.T) {
	s := kitchen(t)
	text, ok := s.ExplainTerm("saute")
	require.True(t, ok)
	assert.Equal(t, "Обжарить.\n\n<i>Не сожги.</i>", text)

	_, ok = s.ExplainTerm("missing")
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"base_ingredients.json": `{"egg": {"aliases": ["яйцо"], "name_forms": {"nom_sg": "яйцо"}}}`,
		"base_recipes.yaml": `
- id: fried_egg
  title: Яичница
  trigger_keys: [egg]
  templates:
    reagents: "{egg} и {bacon}"
    procedure: [Жарь]
`,
		"phrases.json": `{"rejection_phrases": {"no_ingredients_found": "Пусто"}}`,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	s, report, err := Load(dir, knowledge.NewSeededRand(1))
	require.NoError(t, err)
	assert.Contains(t, report.Warnings, `recipe "fried_egg" references unknown ingredient "bacon" in {bacon}`)

	resp := s.Synthesize("яйцо")
	require.Equal(t, KindRecipe, resp.Kind)
	assert.Equal(t, "<b>Яичница</b>\n\nяйцо и {bacon}\n\n👨‍🍳 Шаг 1: Жарь\n\n", resp.Text)

	_, _, err = Load(t.TempDir(), nil)
	assert.ErrorIs(t, err, knowledge.ErrNoIngredients)
}
