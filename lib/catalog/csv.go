package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/icco/backlog/models"
)

// csvColumns is the tabular format's header, in export order.
var csvColumns = []string{
	"id", "name", "status", "release_date", "rating", "image_url",
	"platform", "genre", "playtime", "notes", "date_added", "date_modified",
}

// ImportSummary reports how an import went. Skipped rows (empty or duplicate
// names) are counted, not reported individually.
type ImportSummary struct {
	Imported int
	Skipped  int
}

// ExportCSV writes the whole library to w in the tabular format. Returns the
// number of data rows written.
func (c *Catalog) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	games, err := c.List(ctx, "", "")
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return 0, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, g := range games {
		row := []string{
			strconv.FormatUint(uint64(g.ID), 10),
			g.Name,
			string(g.Status),
			g.ReleaseDate,
			strconv.FormatFloat(g.Rating, 'f', -1, 64),
			g.ImageURL,
			g.Platform,
			g.Genre,
			strconv.FormatFloat(g.Playtime, 'f', -1, 64),
			g.Notes,
			g.DateAdded.Format("2006-01-02"),
			g.DateModified.Format("2006-01-02"),
		}
		if err := cw.Write(row); err != nil {
			return 0, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return len(games), nil
}

// ImportCSV reads rows from r and inserts new games. The header row names
// the columns (case-insensitive); name and status are required columns.
// Rows with an empty name or a name already in the store are skipped.
// Unparseable numeric fields default to 0; unknown statuses default to
// Backlog.
func (c *Catalog) ImportCSV(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &ValidationError{Field: "file", Reason: "CSV file is empty"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"name", "status"} {
		if _, ok := cols[required]; !ok {
			return nil, &ValidationError{Field: required, Reason: "required column not found"}
		}
	}

	field := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	summary := &ImportSummary{}
	now := time.Now()

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		name := strings.TrimSpace(field(row, "name"))
		if name == "" {
			summary.Skipped++
			continue
		}

		var count int64
		if err := c.db.WithContext(ctx).Model(&models.Game{}).
			Where("LOWER(name) = LOWER(?)", name).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check for existing game: %w", err)
		}
		if count > 0 {
			summary.Skipped++
			continue
		}

		status, err := models.ParseStatus(field(row, "status"))
		if err != nil {
			status = models.StatusBacklog
		}

		releaseDate := field(row, "release_date")
		if releaseDate == "" {
			releaseDate = models.ReleaseDateUnknown
		}

		game := models.Game{
			Name:         name,
			Status:       status,
			ReleaseDate:  releaseDate,
			Rating:       parseFloatOrZero(field(row, "rating")),
			ImageURL:     field(row, "image_url"),
			Platform:     field(row, "platform"),
			Genre:        field(row, "genre"),
			Playtime:     parseFloatOrZero(field(row, "playtime")),
			Notes:        field(row, "notes"),
			DateAdded:    now,
			DateModified: now,
		}
		if err := c.db.WithContext(ctx).Create(&game).Error; err != nil {
			return nil, fmt.Errorf("failed to import game: %w", err)
		}
		summary.Imported++
	}

	return summary, nil
}

func parseFloatOrZero(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
