package models_test

import (
	"testing"

	"github.com/icco/backlog/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for in, want := range map[string]models.Status{
		"Backlog":   models.StatusBacklog,
		"playing":   models.StatusPlaying,
		"COMPLETED": models.StatusCompleted,
	} {
		got, err := models.ParseStatus(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := models.ParseStatus("Shelved")
	assert.Error(t, err)
}

func TestDisplayRating(t *testing.T) {
	g := models.Game{Rating: 4.25}
	assert.Equal(t, "4.2/5.0", g.DisplayRating())

	g.Rating = 0
	assert.Equal(t, "N/A", g.DisplayRating())
}

func TestDisplayReleaseDate(t *testing.T) {
	g := models.Game{ReleaseDate: "2016-01-26"}
	assert.Equal(t, "Jan 26, 2016", g.DisplayReleaseDate())

	g.ReleaseDate = models.ReleaseDateUnknown
	assert.Equal(t, "N/A", g.DisplayReleaseDate())

	g.ReleaseDate = "sometime 2016"
	assert.Equal(t, "sometime 2016", g.DisplayReleaseDate())
}

func TestReleaseYear(t *testing.T) {
	g := models.Game{ReleaseDate: "2016-01-26"}
	assert.Equal(t, "2016", g.ReleaseYear())

	g.ReleaseDate = models.ReleaseDateUnknown
	assert.Empty(t, g.ReleaseYear())
}
