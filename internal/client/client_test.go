package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chefCore "recipe-synthesizer/internal/core/chef"
	"recipe-synthesizer/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/chef/synthesize", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"kind":        "options",
			"text":        "need " + req["query"],
			"found_terms": []string{},
			"options":     []map[string]interface{}{{"recipe_id": "borscht", "title": "Борщ", "missing": []string{"meat"}}},
			"ticket":      "t-1",
		})
	})
	mux.HandleFunc("/api/v1/chef/tickets/t-1/resolve", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chefCore.Assembled{RecipeID: "borscht", Text: "<b>Борщ</b>"})
	})
	mux.HandleFunc("/api/v1/chef/recipes/ghost", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(common.ErrRecipeNotFound.Response(false))
	})
	mux.HandleFunc("/api/v1/chef/cuisines", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cuisines":["french","russian"]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient(t *testing.T) {
	srv := newServer(t)
	c := New(srv.URL, 5*time.Second)
	ctx := context.Background()

	res, err := c.Synthesize(ctx, "свекла")
	require.NoError(t, err)
	assert.Equal(t, chefCore.KindOptions, res.Kind)
	assert.Equal(t, "need свекла", res.Text)
	assert.Equal(t, "t-1", res.Ticket)
	require.Len(t, res.Options, 1)
	assert.Equal(t, []string{"meat"}, res.Options[0].Missing)

	assembled, err := c.Resolve(ctx, "t-1", 0)
	require.NoError(t, err)
	assert.Equal(t, "borscht", assembled.RecipeID)

	cuisines, err := c.Cuisines(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"french", "russian"}, cuisines)

	_, err = c.Recipe(ctx, "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrRecipeNotFound)
}
