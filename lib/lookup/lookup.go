// Package lookup resolves free-text titles to catalog records through the
// metadata provider, handing multi-match results to a disambiguation
// collaborator.
package lookup

import (
	"context"
	"errors"
	"fmt"

	"log/slog"

	"github.com/icco/backlog/lib/rawg"
	"github.com/icco/backlog/models"
)

// ErrNoResults means the provider had no candidates for the title.
var ErrNoResults = errors.New("no games found with that name")

// ErrCanceled means the user declined to pick among multiple candidates.
var ErrCanceled = errors.New("selection canceled")

// Chooser picks one candidate from several. It is supplied by the
// presentation layer, which owns the dialog flow. Returning ErrCanceled (or
// a nil candidate) abandons the lookup with no record produced.
type Chooser func(ctx context.Context, candidates []rawg.Candidate) (*rawg.Candidate, error)

type Resolver struct {
	client *rawg.Client
	logger *slog.Logger
}

func New(client *rawg.Client, logger *slog.Logger) *Resolver {
	return &Resolver{
		client: client,
		logger: logger,
	}
}

// Candidates runs one search and returns the raw candidate list.
func (r *Resolver) Candidates(ctx context.Context, title string) ([]rawg.Candidate, error) {
	res, err := r.client.Search(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("failed to search for game: %w", err)
	}
	return res.Results, nil
}

// Resolve turns title into a single record. Zero candidates is ErrNoResults,
// one is returned directly, and several are handed to choose. A provider
// failure never produces a partial record.
func (r *Resolver) Resolve(ctx context.Context, title string, choose Chooser) (*models.Game, error) {
	candidates, err := r.Candidates(ctx, title)
	if err != nil {
		return nil, err
	}

	switch len(candidates) {
	case 0:
		return nil, ErrNoResults
	case 1:
		return candidates[0].Game(), nil
	}

	r.logger.Debug("Multiple candidates found",
		slog.String("title", title),
		slog.Int("count", len(candidates)))

	if choose == nil {
		return nil, ErrCanceled
	}
	chosen, err := choose(ctx, candidates)
	if err != nil {
		return nil, err
	}
	if chosen == nil {
		return nil, ErrCanceled
	}
	return chosen.Game(), nil
}
