package lookup_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"log/slog"

	"github.com/icco/backlog/lib/lookup"
	"github.com/icco/backlog/lib/rawg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResolver(t *testing.T, handler http.HandlerFunc) *lookup.Resolver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := rawg.NewClient("key", srv.URL, logger)
	return lookup.New(client, logger)
}

func resultsBody(names ...string) string {
	out := `{"count": ` + fmt.Sprint(len(names)) + `, "results": [`
	for i, name := range names {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"id": %d, "name": %q, "released": "2020-01-01", "rating": 4.0}`, i+1, name)
	}
	return out + `]}`
}

func TestResolveNoResults(t *testing.T) {
	r := testResolver(t, func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(resultsBody()))
	})

	_, err := r.Resolve(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, lookup.ErrNoResults)
}

func TestResolveSingleResultSkipsChooser(t *testing.T) {
	r := testResolver(t, func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(resultsBody("Only Match")))
	})

	chooserCalled := false
	game, err := r.Resolve(context.Background(), "only", func(ctx context.Context, c []rawg.Candidate) (*rawg.Candidate, error) {
		chooserCalled = true
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Only Match", game.Name)
	assert.False(t, chooserCalled)
}

func TestResolveMultipleUsesChooser(t *testing.T) {
	r := testResolver(t, func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(resultsBody("First", "Second", "Third")))
	})

	game, err := r.Resolve(context.Background(), "many", func(ctx context.Context, c []rawg.Candidate) (*rawg.Candidate, error) {
		require.Len(t, c, 3)
		return &c[1], nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Second", game.Name)
}

func TestResolveCanceledSelection(t *testing.T) {
	r := testResolver(t, func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(resultsBody("First", "Second")))
	})

	_, err := r.Resolve(context.Background(), "many", func(ctx context.Context, c []rawg.Candidate) (*rawg.Candidate, error) {
		return nil, lookup.ErrCanceled
	})
	assert.ErrorIs(t, err, lookup.ErrCanceled)

	// A nil candidate with no error also counts as canceled.
	_, err = r.Resolve(context.Background(), "many", func(ctx context.Context, c []rawg.Candidate) (*rawg.Candidate, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, lookup.ErrCanceled)

	// No chooser at all cancels too.
	_, err = r.Resolve(context.Background(), "many", nil)
	assert.ErrorIs(t, err, lookup.ErrCanceled)
}

func TestResolveProviderFailure(t *testing.T) {
	r := testResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := r.Resolve(context.Background(), "boom", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, lookup.ErrNoResults)
	assert.NotErrorIs(t, err, lookup.ErrCanceled)
}
