package handlers_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/icco/backlog/handlers"
	"github.com/icco/backlog/lib/catalog"
	"github.com/icco/backlog/lib/db"
	"github.com/icco/backlog/lib/images"
	"github.com/icco/backlog/lib/lookup"
	"github.com/icco/backlog/lib/rawg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp wires a router against a fake metadata provider. providerBody is
// what the provider returns for every search.
func testApp(t *testing.T, providerBody string) *httptest.Server {
	t.Helper()

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if providerBody == "" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(providerBody))
	}))
	t.Cleanup(provider.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gdb, err := db.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)

	covers := images.NewStore(t.TempDir(), 16, logger)
	cat := catalog.New(gdb, covers, logger)
	resolver := lookup.New(rawg.NewClient("key", provider.URL, logger), logger)

	r := chi.NewRouter()
	r.Get("/stats", handlers.HandleStats(cat))
	r.Post("/import", handlers.HandleImport(cat))
	r.Get("/export", handlers.HandleExport(cat))
	r.Route("/games", func(r chi.Router) {
		r.Get("/", handlers.HandleList(cat))
		r.Post("/", handlers.HandleAdd(cat, resolver))
		r.Get("/search", handlers.HandleSearch(cat))
		r.Get("/{id}", handlers.HandleGet(cat))
		r.Delete("/{id}", handlers.HandleDelete(cat))
		r.Post("/{id}/status", handlers.HandleSetStatus(cat))
		r.Post("/{id}/playtime", handlers.HandleAddPlaytime(cat))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func singleResult(name string) string {
	return fmt.Sprintf(`{"count":1,"results":[{"id":1,"name":%q,"released":"2019-01-25","rating":4.1,"genres":[{"name":"Roguelike"}]}]}`, name)
}

func multiResult() string {
	return `{"count":2,"results":[
		{"id":11,"name":"Portal","released":"2007-10-09","rating":4.5},
		{"id":12,"name":"Portal 2","released":"2011-04-18","rating":4.6}
	]}`
}

func TestAddSingleCandidateCreatesGame(t *testing.T) {
	srv := testApp(t, singleResult("Slay the Spire"))

	resp := postJSON(t, srv.URL+"/games", `{"name":"slay the spire","status":"Playing"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID      uint `json:"id"`
		Created bool `json:"created"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.True(t, created.Created)

	get, err := http.Get(fmt.Sprintf("%s/games/%d", srv.URL, created.ID))
	require.NoError(t, err)
	defer get.Body.Close()
	assert.Equal(t, http.StatusOK, get.StatusCode)

	var game struct {
		Name               string `json:"Name"`
		DisplayReleaseDate string `json:"display_release_date"`
	}
	require.NoError(t, json.NewDecoder(get.Body).Decode(&game))
	assert.Equal(t, "Slay the Spire", game.Name)
	assert.Equal(t, "Jan 25, 2019", game.DisplayReleaseDate)
}

func TestAddMultipleCandidatesNeedsChoice(t *testing.T) {
	srv := testApp(t, multiResult())

	resp := postJSON(t, srv.URL+"/games", `{"name":"portal"}`)
	assert.Equal(t, http.StatusMultipleChoices, resp.StatusCode)

	var choice struct {
		Candidates []struct {
			ID          int    `json:"id"`
			DisplayLine string `json:"display_line"`
		} `json:"candidates"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&choice))
	require.Len(t, choice.Candidates, 2)

	// Re-submit with the chosen candidate.
	resp = postJSON(t, srv.URL+"/games", `{"name":"portal","candidate_id":12}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	list, err := http.Get(srv.URL + "/games")
	require.NoError(t, err)
	defer list.Body.Close()
	var games []struct {
		Name string `json:"Name"`
	}
	require.NoError(t, json.NewDecoder(list.Body).Decode(&games))
	require.Len(t, games, 1)
	assert.Equal(t, "Portal 2", games[0].Name)
}

func TestAddNoResults(t *testing.T) {
	srv := testApp(t, `{"count":0,"results":[]}`)

	resp := postJSON(t, srv.URL+"/games", `{"name":"does not exist"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAddProviderFailure(t *testing.T) {
	srv := testApp(t, "")

	resp := postJSON(t, srv.URL+"/games", `{"name":"anything"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	list, err := http.Get(srv.URL + "/games")
	require.NoError(t, err)
	defer list.Body.Close()
	var games []json.RawMessage
	require.NoError(t, json.NewDecoder(list.Body).Decode(&games))
	assert.Empty(t, games, "no partial record on provider failure")
}

func TestPlaytimeEndpointValidation(t *testing.T) {
	srv := testApp(t, singleResult("Hades"))

	resp := postJSON(t, srv.URL+"/games", `{"name":"hades"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	bad := postJSON(t, fmt.Sprintf("%s/games/%d/playtime", srv.URL, created.ID), `{"hours":-1}`)
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)

	ok := postJSON(t, fmt.Sprintf("%s/games/%d/playtime", srv.URL, created.ID), `{"hours":3}`)
	assert.Equal(t, http.StatusNoContent, ok.StatusCode)
}

func TestGetMissingGame(t *testing.T) {
	srv := testApp(t, singleResult("x"))

	resp, err := http.Get(srv.URL + "/games/999")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestImportAndStatsEndpoints(t *testing.T) {
	srv := testApp(t, singleResult("x"))

	csv := "name,status,rating\nAlpha,Completed,4.5\nBeta,Backlog,3\n"
	resp, err := http.Post(srv.URL+"/import", "text/csv", strings.NewReader(csv))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary struct {
		Imported int
		Skipped  int
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, 2, summary.Imported)

	stats, err := http.Get(srv.URL + "/stats")
	require.NoError(t, err)
	defer stats.Body.Close()

	var got struct {
		TotalGames int64
		AvgRating  float64
		TopRated   *struct{ Name string }
	}
	require.NoError(t, json.NewDecoder(stats.Body).Decode(&got))
	assert.Equal(t, int64(2), got.TotalGames)
	assert.InDelta(t, 3.75, got.AvgRating, 0.001)
	require.NotNil(t, got.TopRated)
	assert.Equal(t, "Alpha", got.TopRated.Name)
}
