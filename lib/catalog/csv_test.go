package catalog_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/icco/backlog/lib/catalog"
	"github.com/icco/backlog/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportCountsImportedAndSkipped(t *testing.T) {
	c, _ := testCatalog(t)
	ctx := context.Background()

	_, err := c.Upsert(ctx, gameNamed("Existing Game"), models.StatusBacklog)
	require.NoError(t, err)

	input := strings.Join([]string{
		"name,status,rating,playtime",
		"Fresh Game,Playing,4.2,10",
		"existing game,Backlog,3.0,5", // duplicate, case-insensitive
		",Backlog,1.0,1",              // empty name
	}, "\n")

	summary, err := c.ImportCSV(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 2, summary.Skipped)

	games, err := c.List(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, games, 2)
}

func TestImportDefaultsBadNumericsToZero(t *testing.T) {
	c, _ := testCatalog(t)
	ctx := context.Background()

	input := "name,status,rating,playtime\nWeird Game,Playing,not-a-number,also-bad\n"
	summary, err := c.ImportCSV(ctx, strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 1, summary.Imported)

	games, err := c.Search(ctx, "weird")
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Zero(t, games[0].Rating)
	assert.Zero(t, games[0].Playtime)
}

func TestImportUnknownStatusDefaultsToBacklog(t *testing.T) {
	c, _ := testCatalog(t)
	ctx := context.Background()

	input := "name,status\nSome Game,Shelved\n"
	_, err := c.ImportCSV(ctx, strings.NewReader(input))
	require.NoError(t, err)

	games, err := c.List(ctx, models.StatusBacklog, "")
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, models.ReleaseDateUnknown, games[0].ReleaseDate)
}

func TestImportRequiresNameAndStatusColumns(t *testing.T) {
	c, _ := testCatalog(t)

	_, err := c.ImportCSV(context.Background(), strings.NewReader("name,rating\nGame,4\n"))
	assert.True(t, catalog.IsValidation(err))

	_, err = c.ImportCSV(context.Background(), strings.NewReader(""))
	assert.True(t, catalog.IsValidation(err))
}

func TestImportHeaderIsCaseInsensitive(t *testing.T) {
	c, _ := testCatalog(t)

	input := "Name,Status\nCased Game,completed\n"
	summary, err := c.ImportCSV(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)

	games, err := c.List(context.Background(), models.StatusCompleted, "")
	require.NoError(t, err)
	assert.Len(t, games, 1)
}

func TestExportRoundTrip(t *testing.T) {
	c, _ := testCatalog(t)
	ctx := context.Background()

	g := gameNamed("Export Me")
	g.Notes = "has, a comma"
	res, err := c.Upsert(ctx, g, models.StatusPlaying)
	require.NoError(t, err)
	require.NoError(t, c.AddPlaytime(ctx, res.ID, 3))

	var buf bytes.Buffer
	n, err := c.ExportCSV(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data := buf.Bytes()
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "Export Me", rows[1][1])
	assert.Equal(t, "Playing", rows[1][2])
	assert.Equal(t, "3", rows[1][8])
	assert.Equal(t, "has, a comma", rows[1][9])

	// An exported file imports cleanly into an empty store.
	other, _ := testCatalog(t)
	summary, err := other.ImportCSV(ctx, bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
}
