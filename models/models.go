package models

import (
	"fmt"
	"strings"
	"time"
)

// ReleaseDateUnknown is the sentinel the metadata provider returns when a
// game has no published release date.
const ReleaseDateUnknown = "N/A"

// Status tracks where a game sits in the backlog lifecycle.
type Status string

const (
	StatusBacklog   Status = "Backlog"
	StatusPlaying   Status = "Playing"
	StatusCompleted Status = "Completed"
)

// Statuses lists every valid status, in lifecycle order.
var Statuses = []Status{StatusBacklog, StatusPlaying, StatusCompleted}

// ParseStatus matches a string against the known statuses, ignoring case.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

type Game struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"not null;index"`
	Status       Status
	ReleaseDate  string // "2006-01-02" from the provider, or ReleaseDateUnknown
	Rating       float64
	ImageURL     string
	Platform     string // comma-joined, at most 3
	Genre        string // comma-joined, at most 3
	Playtime     float64
	Notes        string
	DateAdded    time.Time
	DateModified time.Time
}

// DisplayRating formats a rating for display. Zero means unrated.
func (g *Game) DisplayRating() string {
	if g.Rating > 0 {
		return fmt.Sprintf("%.1f/5.0", g.Rating)
	}
	return "N/A"
}

// DisplayReleaseDate formats the release date for display, falling back to
// the raw value when it isn't a provider-format date.
func (g *Game) DisplayReleaseDate() string {
	if g.ReleaseDate == "" || g.ReleaseDate == ReleaseDateUnknown {
		return ReleaseDateUnknown
	}
	d, err := time.Parse("2006-01-02", g.ReleaseDate)
	if err != nil {
		return g.ReleaseDate
	}
	return d.Format("Jan 02, 2006")
}

// ReleaseYear returns the four-digit release year, or "" if unknown.
func (g *Game) ReleaseYear() string {
	if g.ReleaseDate != ReleaseDateUnknown && len(g.ReleaseDate) >= 4 {
		return g.ReleaseDate[:4]
	}
	return ""
}
