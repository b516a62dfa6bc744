package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"log/slog"

	"github.com/icco/backlog/lib/tasks"
	"github.com/icco/backlog/models"
	"gorm.io/gorm"
)

// CoverStore persists cover images for games. Failures are best-effort from
// the catalog's point of view: they are logged and never fail an operation.
type CoverStore interface {
	SaveLocal(ctx context.Context, url string, id uint) (string, error)
	Remove(id uint) error
}

// Catalog is the single source of truth for game records. All reads and
// writes go through it; it never touches UI state.
type Catalog struct {
	db     *gorm.DB
	covers CoverStore
	logger *slog.Logger
}

// New builds a catalog over db. covers may be nil, which disables local
// cover caching.
func New(db *gorm.DB, covers CoverStore, logger *slog.Logger) *Catalog {
	return &Catalog{
		db:     db,
		covers: covers,
		logger: logger,
	}
}

// SortKey selects the ordering of List results.
type SortKey string

const (
	SortNameAsc      SortKey = "name_asc"
	SortNameDesc     SortKey = "name_desc"
	SortRatingDesc   SortKey = "rating_desc"
	SortReleasedDesc SortKey = "released_desc"
	SortReleasedAsc  SortKey = "released_asc"
	SortAddedDesc    SortKey = "added_desc"
)

var sortClauses = map[SortKey]string{
	SortNameAsc:      "name COLLATE NOCASE ASC",
	SortNameDesc:     "name COLLATE NOCASE DESC",
	SortRatingDesc:   "rating DESC",
	SortReleasedDesc: "release_date DESC",
	SortReleasedAsc:  "release_date ASC",
	SortAddedDesc:    "date_added DESC",
}

// UpsertResult reports what Upsert did.
type UpsertResult struct {
	ID      uint
	Created bool
	// CoverSaved reports the background cover fetch scheduled for a newly
	// inserted game. Nil when no fetch was scheduled. The channel delivers
	// exactly one result (the saved file path, or the fetch error) and is
	// then closed.
	CoverSaved <-chan tasks.Result[string]
}

// Upsert inserts game, or updates the existing record with the same name
// (compared case-insensitively). Updates touch only the provider-owned
// fields plus status; playtime and notes are left alone. On insert, a
// best-effort background fetch of the cover image is scheduled.
func (c *Catalog) Upsert(ctx context.Context, game *models.Game, status models.Status) (*UpsertResult, error) {
	if _, err := models.ParseStatus(string(status)); err != nil {
		return nil, &ValidationError{Field: "status", Reason: err.Error()}
	}

	now := time.Now()

	var existing models.Game
	err := c.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", game.Name).First(&existing).Error
	if err == nil {
		updates := map[string]interface{}{
			"status":        status,
			"release_date":  game.ReleaseDate,
			"rating":        game.Rating,
			"image_url":     game.ImageURL,
			"platform":      game.Platform,
			"genre":         game.Genre,
			"date_modified": now,
		}
		if err := c.db.WithContext(ctx).Model(&models.Game{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update game: %w", err)
		}
		return &UpsertResult{ID: existing.ID}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check for existing game: %w", err)
	}

	rec := models.Game{
		Name:         game.Name,
		Status:       status,
		ReleaseDate:  game.ReleaseDate,
		Rating:       game.Rating,
		ImageURL:     game.ImageURL,
		Platform:     game.Platform,
		Genre:        game.Genre,
		Playtime:     0,
		Notes:        game.Notes,
		DateAdded:    now,
		DateModified: now,
	}
	if err := c.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	res := &UpsertResult{ID: rec.ID, Created: true}
	if rec.ImageURL != "" && c.covers != nil {
		id, url := rec.ID, rec.ImageURL
		res.CoverSaved = tasks.Go(func() (string, error) {
			fetchCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			path, err := c.covers.SaveLocal(fetchCtx, url, id)
			if err != nil {
				c.logger.Warn("Failed to cache cover image",
					slog.Uint64("game_id", uint64(id)),
					slog.Any("error", err))
			}
			return path, err
		})
	}
	return res, nil
}

// List returns games matching status (empty means all), ordered by sort.
// An empty sort returns the store's natural order.
func (c *Catalog) List(ctx context.Context, status models.Status, sort SortKey) ([]models.Game, error) {
	q := c.db.WithContext(ctx).Model(&models.Game{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if sort != "" {
		clause, ok := sortClauses[sort]
		if !ok {
			return nil, &ValidationError{Field: "sort", Reason: fmt.Sprintf("unknown sort key %q", sort)}
		}
		q = q.Order(clause)
	}

	var games []models.Game
	if err := q.Find(&games).Error; err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

// Search returns games whose name, platform, or genre contains term,
// ignoring case. An empty term returns everything. No ranking is applied.
func (c *Catalog) Search(ctx context.Context, term string) ([]models.Game, error) {
	if term == "" {
		return c.List(ctx, "", "")
	}

	pattern := "%" + term + "%"
	var games []models.Game
	err := c.db.WithContext(ctx).
		Where("name LIKE ? OR platform LIKE ? OR genre LIKE ?", pattern, pattern, pattern).
		Find(&games).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search games: %w", err)
	}
	return games, nil
}

// Get returns the full record for id.
func (c *Catalog) Get(ctx context.Context, id uint) (*models.Game, error) {
	var game models.Game
	if err := c.db.WithContext(ctx).First(&game, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return &game, nil
}

// Delete removes the record and best-effort removes its cached cover image.
func (c *Catalog) Delete(ctx context.Context, id uint) error {
	result := c.db.WithContext(ctx).Delete(&models.Game{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete game: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	if c.covers != nil {
		if err := c.covers.Remove(id); err != nil {
			c.logger.Warn("Failed to remove cached cover image",
				slog.Uint64("game_id", uint64(id)),
				slog.Any("error", err))
		}
	}
	return nil
}

// SetStatus moves a game to status and refreshes date_modified.
func (c *Catalog) SetStatus(ctx context.Context, id uint, status models.Status) error {
	if _, err := models.ParseStatus(string(status)); err != nil {
		return &ValidationError{Field: "status", Reason: err.Error()}
	}

	result := c.db.WithContext(ctx).Model(&models.Game{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        status,
		"date_modified": time.Now(),
	})
	if result.Error != nil {
		return fmt.Errorf("failed to set status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddPlaytime logs hours of playtime against a game. Hours must be a
// positive finite number.
func (c *Catalog) AddPlaytime(ctx context.Context, id uint, hours float64) error {
	if math.IsNaN(hours) || math.IsInf(hours, 0) {
		return &ValidationError{Field: "hours", Reason: "must be a number"}
	}
	if hours <= 0 {
		return &ValidationError{Field: "hours", Reason: "must be a positive number"}
	}

	game, err := c.Get(ctx, id)
	if err != nil {
		return err
	}

	err = c.db.WithContext(ctx).Model(&models.Game{}).Where("id = ?", id).Updates(map[string]interface{}{
		"playtime":      game.Playtime + hours,
		"date_modified": time.Now(),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to add playtime: %w", err)
	}
	return nil
}

// Edit is a full-record overwrite of the user-editable fields.
type Edit struct {
	Name        string
	Status      models.Status
	ReleaseDate string
	Rating      float64
	ImageURL    string
	Platform    string
	Genre       string
	Playtime    float64
	Notes       string
}

// EditGame validates e and overwrites the record. Nothing is persisted when
// validation fails.
func (c *Catalog) EditGame(ctx context.Context, id uint, e Edit) error {
	if e.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if _, err := models.ParseStatus(string(e.Status)); err != nil {
		return &ValidationError{Field: "status", Reason: err.Error()}
	}
	if math.IsNaN(e.Rating) || e.Rating < 0 || e.Rating > 5 {
		return &ValidationError{Field: "rating", Reason: "must be between 0 and 5"}
	}
	if math.IsNaN(e.Playtime) || e.Playtime < 0 {
		return &ValidationError{Field: "playtime", Reason: "cannot be negative"}
	}

	if _, err := c.Get(ctx, id); err != nil {
		return err
	}

	err := c.db.WithContext(ctx).Model(&models.Game{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":          e.Name,
		"status":        e.Status,
		"release_date":  e.ReleaseDate,
		"rating":        e.Rating,
		"image_url":     e.ImageURL,
		"platform":      e.Platform,
		"genre":         e.Genre,
		"playtime":      e.Playtime,
		"notes":         e.Notes,
		"date_modified": time.Now(),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to edit game: %w", err)
	}
	return nil
}
