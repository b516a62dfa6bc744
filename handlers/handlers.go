// Package handlers is the HTTP presentation surface. It collects user
// input, invokes the catalog and lookup libraries, and renders their output
// as JSON; it owns the disambiguation flow for multi-candidate lookups.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/icco/backlog/lib/catalog"
	"github.com/icco/backlog/lib/images"
	"github.com/icco/backlog/lib/lookup"
	"github.com/icco/backlog/lib/rawg"
	"github.com/icco/backlog/lib/validation"
	"github.com/icco/backlog/models"
)

type gameJSON struct {
	models.Game
	DisplayRating      string `json:"display_rating"`
	DisplayReleaseDate string `json:"display_release_date"`
}

func toJSON(g models.Game) gameJSON {
	return gameJSON{
		Game:               g,
		DisplayRating:      g.DisplayRating(),
		DisplayReleaseDate: g.DisplayReleaseDate(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", slog.Any("error", err))
	}
}

// writeDomainError maps library errors onto HTTP statuses: validation 400,
// not found 404, canceled disambiguation 409, provider failures 502, and
// storage failures 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case catalog.IsValidation(err):
		validation.WriteError(w, err, http.StatusBadRequest)
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, lookup.ErrNoResults):
		validation.WriteError(w, err, http.StatusNotFound)
	case errors.Is(err, lookup.ErrCanceled):
		validation.WriteError(w, err, http.StatusConflict)
	default:
		validation.WriteError(w, err, http.StatusInternalServerError)
	}
}

func idParam(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid game id")
	}
	return uint(id), nil
}

// HandleList returns games filtered by ?status= and ordered by ?sort=.
func HandleList(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status models.Status
		if s := r.URL.Query().Get("status"); s != "" && s != "All" {
			parsed, err := models.ParseStatus(s)
			if err != nil {
				validation.WriteError(w, err, http.StatusBadRequest)
				return
			}
			status = parsed
		}

		sort := catalog.SortKey(r.URL.Query().Get("sort"))
		if sort == "" {
			sort = catalog.SortNameAsc
		}

		games, err := c.List(r.Context(), status, sort)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		out := make([]gameJSON, 0, len(games))
		for _, g := range games {
			out = append(out, toJSON(g))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// HandleSearch returns games matching ?q= against name, platform, or genre.
func HandleSearch(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		games, err := c.Search(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		out := make([]gameJSON, 0, len(games))
		for _, g := range games {
			out = append(out, toJSON(g))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// HandleGet returns the full record for one game.
func HandleGet(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			validation.WriteError(w, err, http.StatusBadRequest)
			return
		}

		game, err := c.Get(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toJSON(*game))
	}
}

type addRequest struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	CandidateID int    `json:"candidate_id"` // picks among multiple matches
}

type candidateJSON struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Released    string `json:"released"`
	DisplayLine string `json:"display_line"`
}

// HandleAdd resolves a title through the metadata provider and upserts the
// result. When the provider returns several candidates and the request
// doesn't name one, it answers 300 with the candidate list so the client can
// re-submit with candidate_id; that round trip is the disambiguation dialog.
func HandleAdd(c *catalog.Catalog, resolver *lookup.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			validation.WriteError(w, fmt.Errorf("invalid request body"), http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			validation.WriteError(w, fmt.Errorf("enter a game name"), http.StatusBadRequest)
			return
		}

		status := models.StatusBacklog
		if req.Status != "" {
			parsed, err := models.ParseStatus(req.Status)
			if err != nil {
				validation.WriteError(w, err, http.StatusBadRequest)
				return
			}
			status = parsed
		}

		var needsChoice []rawg.Candidate
		game, err := resolver.Resolve(r.Context(), req.Name, func(ctx context.Context, candidates []rawg.Candidate) (*rawg.Candidate, error) {
			if req.CandidateID != 0 {
				for i := range candidates {
					if candidates[i].ID == req.CandidateID {
						return &candidates[i], nil
					}
				}
				return nil, &catalog.ValidationError{Field: "candidate_id", Reason: "not in search results"}
			}
			needsChoice = candidates
			return nil, lookup.ErrCanceled
		})
		if err != nil {
			if len(needsChoice) > 0 {
				out := make([]candidateJSON, 0, len(needsChoice))
				for _, cand := range needsChoice {
					out = append(out, candidateJSON{
						ID:          cand.ID,
						Name:        cand.Name,
						Released:    cand.Released,
						DisplayLine: cand.DisplayLine(),
					})
				}
				writeJSON(w, http.StatusMultipleChoices, map[string]interface{}{"candidates": out})
				return
			}
			if catalog.IsValidation(err) || errors.Is(err, lookup.ErrNoResults) || errors.Is(err, lookup.ErrCanceled) {
				writeDomainError(w, err)
				return
			}
			slog.Error("Lookup failed", slog.String("title", req.Name), slog.Any("error", err))
			validation.WriteError(w, fmt.Errorf("could not connect to game database"), http.StatusBadGateway)
			return
		}

		res, err := c.Upsert(r.Context(), game, status)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		httpStatus := http.StatusOK
		if res.Created {
			httpStatus = http.StatusCreated
		}
		writeJSON(w, httpStatus, map[string]interface{}{"id": res.ID, "created": res.Created})
	}
}

// HandleCandidates exposes the raw candidate list for a title, for clients
// that want to drive disambiguation themselves.
func HandleCandidates(resolver *lookup.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		title := r.URL.Query().Get("q")
		if title == "" {
			validation.WriteError(w, fmt.Errorf("enter a game name"), http.StatusBadRequest)
			return
		}

		candidates, err := resolver.Candidates(r.Context(), title)
		if err != nil {
			slog.Error("Candidate search failed", slog.String("title", title), slog.Any("error", err))
			validation.WriteError(w, fmt.Errorf("could not connect to game database"), http.StatusBadGateway)
			return
		}

		out := make([]candidateJSON, 0, len(candidates))
		for _, cand := range candidates {
			out = append(out, candidateJSON{
				ID:          cand.ID,
				Name:        cand.Name,
				Released:    cand.Released,
				DisplayLine: cand.DisplayLine(),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type editRequest struct {
	Name        string  `json:"name"`
	Status      string  `json:"status"`
	ReleaseDate string  `json:"release_date"`
	Rating      float64 `json:"rating"`
	ImageURL    string  `json:"image_url"`
	Platform    string  `json:"platform"`
	Genre       string  `json:"genre"`
	Playtime    float64 `json:"playtime"`
	Notes       string  `json:"notes"`
}

// HandleEdit overwrites a record with the submitted fields.
func HandleEdit(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			validation.WriteError(w, err, http.StatusBadRequest)
			return
		}

		var req editRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			validation.WriteError(w, fmt.Errorf("invalid request body"), http.StatusBadRequest)
			return
		}
		if err := validation.ValidateReleaseDate(req.ReleaseDate); err != nil {
			validation.WriteError(w, err, http.StatusBadRequest)
			return
		}

		err = c.EditGame(r.Context(), id, catalog.Edit{
			Name:        req.Name,
			Status:      models.Status(req.Status),
			ReleaseDate: req.ReleaseDate,
			Rating:      req.Rating,
			ImageURL:    req.ImageURL,
			Platform:    req.Platform,
			Genre:       req.Genre,
			Playtime:    req.Playtime,
			Notes:       req.Notes,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		game, err := c.Get(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toJSON(*game))
	}
}

// HandleDelete removes a game and its cached cover.
func HandleDelete(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			validation.WriteError(w, err, http.StatusBadRequest)
			return
		}

		if err := c.Delete(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

// HandleSetStatus moves a game between Backlog, Playing, and Completed.
func HandleSetStatus(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			validation.WriteError(w, err, http.StatusBadRequest)
			return
		}

		var req statusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			validation.WriteError(w, fmt.Errorf("invalid request body"), http.StatusBadRequest)
			return
		}

		if err := c.SetStatus(r.Context(), id, models.Status(req.Status)); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type playtimeRequest struct {
	Hours float64 `json:"hours"`
}

// HandleAddPlaytime logs hours against a game.
func HandleAddPlaytime(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			validation.WriteError(w, err, http.StatusBadRequest)
			return
		}

		var req playtimeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			validation.WriteError(w, fmt.Errorf("invalid request body"), http.StatusBadRequest)
			return
		}

		if err := c.AddPlaytime(r.Context(), id, req.Hours); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleStats reports aggregate library statistics.
func HandleStats(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := c.Statistics(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// HandleExport streams the library as CSV.
func HandleExport(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="games.csv"`)
		if _, err := c.ExportCSV(r.Context(), w); err != nil {
			slog.Error("Export failed", slog.Any("error", err))
		}
	}
}

// HandleImport reads a CSV body and reports how many rows were imported and
// skipped.
func HandleImport(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := c.ImportCSV(r.Context(), r.Body)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

// HandleCover serves a game's cover image, from the in-memory cache when
// warm. Missing art is reported as 404, never as a failure.
func HandleCover(c *catalog.Catalog, covers *images.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			validation.WriteError(w, err, http.StatusBadRequest)
			return
		}

		game, err := c.Get(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if game.ImageURL == "" {
			validation.WriteError(w, fmt.Errorf("no image available"), http.StatusNotFound)
			return
		}

		data, err := covers.Fetch(r.Context(), game.ImageURL)
		if err != nil {
			slog.Warn("Cover fetch failed", slog.Uint64("game_id", uint64(id)), slog.Any("error", err))
			validation.WriteError(w, fmt.Errorf("image not available"), http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		if _, err := w.Write(data); err != nil {
			slog.Error("Failed to write cover response", slog.Any("error", err))
		}
	}
}
