package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/brutalball/internal/export"
	"github.com/fortuna/brutalball/internal/extract"
	"github.com/fortuna/brutalball/internal/teams"
)

func resetScrapeFlags() {
	scrapeFlags.all = false
	scrapeFlags.team = -1
	scrapeFlags.ids = ""
	scrapeFlags.keepHash = false
}

func TestBuildRequest(t *testing.T) {
	t.Cleanup(resetScrapeFlags)

	resetScrapeFlags()
	_, err := buildRequest(extract.PagePlayers)
	assert.Error(t, err, "players needs a team selection")

	scrapeFlags.team = 7
	req, err := buildRequest(extract.PagePlayers)
	require.NoError(t, err)
	assert.Equal(t, []uint32{7}, req.TeamIDs)

	resetScrapeFlags()
	scrapeFlags.ids = "3-4,1"
	req, err = buildRequest(extract.PagePlayers)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 3, 4}, req.TeamIDs)

	resetScrapeFlags()
	scrapeFlags.team = 32
	_, err = buildRequest(extract.PagePlayers)
	assert.Error(t, err)

	resetScrapeFlags()
	scrapeFlags.all = true
	req, err = buildRequest(extract.PagePlayers)
	require.NoError(t, err)
	assert.Empty(t, req.TeamIDs)
	assert.Equal(t, "players_all.csv", defaultOutput(extract.PagePlayers, export.FormatCSV))

	_, err = buildRequest(extract.PageInjuries)
	assert.Error(t, err, "--all does not apply to injuries")

	resetScrapeFlags()
	req, err = buildRequest(extract.PageGameResults)
	require.NoError(t, err)
	assert.Equal(t, extract.PageGameResults, req.Page)
	assert.Equal(t, "game_results.tsv", defaultOutput(extract.PageGameResults, export.FormatTSV))
}

func TestVerifyVariantsAgree(t *testing.T) {
	dir := teams.Directory{{ID: 1, Name: "Storm"}, {ID: 2, Name: "Stormriders"}}
	doc := `Season 4<br>` +
		`W1 Stormriders Thudd DUR 3 Cut by Storm Rook BRU 2<br>` +
		`<b>W2</b> Storm Rook DUR 1 Bruise by Stormriders Zed BRU 5 SR Drops from 9 to 8<br>` +
		`not an event<br>`

	rep := verifyVariants(doc, dir, 2)
	assert.Equal(t, 2, rep.lines)
	assert.Zero(t, rep.disagreements)
	require.Len(t, rep.timings, len(extract.Variants))
	for _, timing := range rep.timings {
		assert.Equal(t, 2, timing.rows, timing.variant.String())
	}

	var out bytes.Buffer
	rep.render(&out)
	assert.Contains(t, out.String(), "fast-idx")
	assert.Contains(t, out.String(), "0 disagreements")
}

func TestVerifyReportKeepsFooterCase(t *testing.T) {
	rep := verifyReport{lines: 7, disagreements: 3, diffs: []string{"fast-base vs reference"}}

	var out bytes.Buffer
	rep.render(&out)
	assert.Contains(t, out.String(), "3 disagreements")
	assert.Contains(t, out.String(), "lines")
	assert.NotContains(t, out.String(), "DISAGREEMENTS")
	assert.Contains(t, out.String(), "fast-base vs reference")
}
