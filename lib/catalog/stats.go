package catalog

import (
	"context"
	"fmt"

	"github.com/icco/backlog/models"
)

// GameRef names a game together with the value that put it on top of a
// leaderboard (rating or hours).
type GameRef struct {
	ID    uint
	Name  string
	Value float64
}

// TrendItem is a most-common value and how many games carry it.
type TrendItem struct {
	Value string
	Count int64
}

// Statistics summarizes the whole library.
type Statistics struct {
	TotalGames     int64
	BacklogCount   int64
	PlayingCount   int64
	CompletedCount int64
	BacklogPct     float64
	PlayingPct     float64
	CompletionRate float64 // percent of games completed

	TotalPlaytime float64
	AvgPlaytime   float64

	AvgRating  float64 // over rated games only
	TopRated   *GameRef
	MostPlayed *GameRef

	TopGenre    *TrendItem
	TopPlatform *TrendItem
	TopYear     *TrendItem
}

// Statistics computes aggregate statistics over the library. Ties on the
// trend leaderboards break by value ascending so results are deterministic.
func (c *Catalog) Statistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{}
	db := c.db.WithContext(ctx)

	if err := db.Model(&models.Game{}).Count(&stats.TotalGames).Error; err != nil {
		return nil, fmt.Errorf("failed to count games: %w", err)
	}

	counts := []struct {
		status models.Status
		target *int64
	}{
		{models.StatusBacklog, &stats.BacklogCount},
		{models.StatusPlaying, &stats.PlayingCount},
		{models.StatusCompleted, &stats.CompletedCount},
	}
	for _, sc := range counts {
		if err := db.Model(&models.Game{}).Where("status = ?", sc.status).Count(sc.target).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s games: %w", sc.status, err)
		}
	}
	if stats.TotalGames > 0 {
		total := float64(stats.TotalGames)
		stats.BacklogPct = float64(stats.BacklogCount) / total * 100
		stats.PlayingPct = float64(stats.PlayingCount) / total * 100
		stats.CompletionRate = float64(stats.CompletedCount) / total * 100
	}

	if err := db.Model(&models.Game{}).Select("COALESCE(SUM(playtime), 0)").Scan(&stats.TotalPlaytime).Error; err != nil {
		return nil, fmt.Errorf("failed to sum playtime: %w", err)
	}
	if stats.TotalGames > 0 {
		stats.AvgPlaytime = stats.TotalPlaytime / float64(stats.TotalGames)
	}

	if err := db.Model(&models.Game{}).Where("rating > 0").
		Select("COALESCE(AVG(rating), 0)").Scan(&stats.AvgRating).Error; err != nil {
		return nil, fmt.Errorf("failed to average ratings: %w", err)
	}

	topRated, err := c.leader(ctx, "rating")
	if err != nil {
		return nil, err
	}
	stats.TopRated = topRated

	mostPlayed, err := c.leader(ctx, "playtime")
	if err != nil {
		return nil, err
	}
	stats.MostPlayed = mostPlayed

	trends := []struct {
		sql    string
		args   []interface{}
		target **TrendItem
	}{
		{
			`SELECT genre AS value, COUNT(*) AS count FROM games WHERE genre != ''
			 GROUP BY genre ORDER BY count DESC, value ASC LIMIT 1`,
			nil,
			&stats.TopGenre,
		},
		{
			`SELECT platform AS value, COUNT(*) AS count FROM games WHERE platform != ''
			 GROUP BY platform ORDER BY count DESC, value ASC LIMIT 1`,
			nil,
			&stats.TopPlatform,
		},
		{
			`SELECT SUBSTR(release_date, 1, 4) AS value, COUNT(*) AS count FROM games
			 WHERE release_date != '' AND release_date != ?
			 GROUP BY value ORDER BY count DESC, value ASC LIMIT 1`,
			[]interface{}{models.ReleaseDateUnknown},
			&stats.TopYear,
		},
	}
	for _, t := range trends {
		var item TrendItem
		result := db.Raw(t.sql, t.args...).Scan(&item)
		if result.Error != nil {
			return nil, fmt.Errorf("failed to compute trend: %w", result.Error)
		}
		if result.RowsAffected > 0 {
			*t.target = &item
		}
	}

	return stats, nil
}

// leader returns the game with the highest non-zero value in column, ties
// broken by name.
func (c *Catalog) leader(ctx context.Context, column string) (*GameRef, error) {
	var game models.Game
	result := c.db.WithContext(ctx).
		Where(column+" > 0").
		Order(column + " DESC, name COLLATE NOCASE ASC").
		Limit(1).
		Find(&game)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find top game by %s: %w", column, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}

	ref := &GameRef{ID: game.ID, Name: game.Name}
	if column == "rating" {
		ref.Value = game.Rating
	} else {
		ref.Value = game.Playtime
	}
	return ref, nil
}
