package validation_test

import (
	"testing"

	"github.com/icco/backlog/lib/validation"
	"github.com/icco/backlog/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRating(t *testing.T) {
	r, err := validation.ParseRating("4.5")
	require.NoError(t, err)
	assert.Equal(t, 4.5, r)

	_, err = validation.ParseRating("7")
	assert.Error(t, err)
	_, err = validation.ParseRating("-1")
	assert.Error(t, err)
	_, err = validation.ParseRating("four")
	assert.Error(t, err)
}

func TestParseHours(t *testing.T) {
	h, err := validation.ParseHours(" 2.5 ")
	require.NoError(t, err)
	assert.Equal(t, 2.5, h)

	_, err = validation.ParseHours("lots")
	assert.Error(t, err)
}

func TestValidateReleaseDate(t *testing.T) {
	assert.NoError(t, validation.ValidateReleaseDate("2020-06-15"))
	assert.NoError(t, validation.ValidateReleaseDate(""))
	assert.NoError(t, validation.ValidateReleaseDate(models.ReleaseDateUnknown))

	assert.Error(t, validation.ValidateReleaseDate("June 2020"))
	assert.Error(t, validation.ValidateReleaseDate("2020-13-45"))
}
