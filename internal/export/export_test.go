package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/brutalball/internal/extract"
)

func players() extract.Bundle {
	return extract.Bundle{
		Headers: []string{"Name", "Number", "Race", "Team"},
		Rows: [][]string{
			{"Gorak, the Unwashed", "#27", "Drakon", "Failurewood Hills"},
			{`Big "Tiny" Tim`, "#3", "Ogre", "Medics"},
			{"Thudd", "#4", "Ogre", "Failurewood Hills"},
		},
	}
}

func TestWriteDelimitedQuoting(t *testing.T) {
	var buf bytes.Buffer
	err := WriteDelimited(&buf, players(), OptionsFor(extract.PagePlayers, FormatCSV, true, false))
	require.NoError(t, err)

	want := strings.Join([]string{
		"Name,Number,Race,Team",
		`"Gorak, the Unwashed",27,Drakon,Failurewood Hills`,
		`"Big ""Tiny"" Tim",3,Ogre,Medics`,
		"Thudd,4,Ogre,Failurewood Hills",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestWriteDelimitedTSVKeepsHash(t *testing.T) {
	var buf bytes.Buffer
	b := extract.Bundle{Rows: [][]string{{"a,b", "#1", "line\rbreak"}}}
	require.NoError(t, WriteDelimited(&buf, b, OptionsFor(extract.PagePlayers, FormatTSV, true, true)))
	assert.Equal(t, "a,b\t#1\t\"line\rbreak\"\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteDelimited(&buf, b, OptionsFor(extract.PageInjuries, FormatCSV, false, false)))
	assert.Equal(t, "\"a,b\",#1,\"line\rbreak\"\n", buf.String())
}

func TestReadDelimitedRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	b := players()
	require.NoError(t, WriteDelimited(&buf, b, Options{Sep: ',', IncludeHeaders: true}))

	rows, err := ReadDelimited(&buf, ',')
	require.NoError(t, err)
	require.True(t, DetectHeaders(extract.PagePlayers, rows))
	if diff := cmp.Diff(b.Rows, rows[1:]); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectHeaders(t *testing.T) {
	assert.True(t, DetectHeaders(extract.PageGameResults, [][]string{extract.GameResultHeaders}))
	assert.False(t, DetectHeaders(extract.PageGameResults, [][]string{{"12", "1"}}))
	assert.False(t, DetectHeaders(extract.PageInjuries, nil))
}

func TestSplitByTeam(t *testing.T) {
	dir := t.TempDir()
	b := players()
	b.Rows = append(b.Rows, []string{"Zed", "#9", "Elf", "Failurewood-Hills!"})
	// sanitizes to the same stem as the next team
	b.Rows = append(b.Rows, []string{"Ned", "#8", "Elf", "Failurewood-Hills?"})

	paths, err := SplitByTeam(dir, b, extract.RosterTeamCol, FormatCSV, Options{Sep: ','})
	require.NoError(t, err)

	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{
		"Failurewood_Hills.csv",
		"Medics.csv",
		"Failurewood-Hills.csv",
		"Failurewood-Hills (2).csv",
	}, names)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "players.xlsx")
	require.NoError(t, WriteFile(path, players(), FormatXLSX, OptionsFor(extract.PagePlayers, FormatXLSX, true, false)))

	rows, err := ReadXLSX(path)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Name", "Number", "Race", "Team"}, rows[0])
	assert.Equal(t, "27", rows[1][1])
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" TSV ")
	require.NoError(t, err)
	assert.Equal(t, '\t', f.Sep())
	_, err = ParseFormat("json")
	assert.Error(t, err)
}
