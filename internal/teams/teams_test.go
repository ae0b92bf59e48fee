package teams

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleDir = Directory{
	{ID: 3, Name: "Storm"},
	{ID: 7, Name: "Stormriders"},
	{ID: 9, Name: "Blood Pit Bouncers"},
	{ID: 12, Name: "Bumson Medics"},
	{ID: 14, Name: "bumson"},
}

func TestLongestPrefixWins(t *testing.T) {
	for _, m := range []PrefixMatcher{NewLinear(sampleDir), NewIndex(sampleDir)} {
		team, rest, ok := m.SplitPrefix("Stormriders Thudd")
		require.True(t, ok)
		assert.Equal(t, "Stormriders", team)
		assert.Equal(t, "Thudd", rest)

		team, rest, ok = m.SplitPrefix("Storm Thudd Junior")
		require.True(t, ok)
		assert.Equal(t, "Storm", team)
		assert.Equal(t, "Thudd Junior", rest)
	}
}

func TestPrefixIsCaseSensitive(t *testing.T) {
	idx := NewIndex(sampleDir)
	team, _, ok := idx.SplitPrefix("bumson Gorak")
	require.True(t, ok)
	assert.Equal(t, "bumson", team)

	team, _, ok = idx.SplitPrefix("Bumson Medics Gorak")
	require.True(t, ok)
	assert.Equal(t, "Bumson Medics", team)

	_, _, ok = idx.SplitPrefix("STORM Thudd")
	assert.False(t, ok)
	_, _, ok = idx.SplitPrefix("")
	assert.False(t, ok)
}

func TestLinearAndIndexAgree(t *testing.T) {
	lin, idx := NewLinear(sampleDir), NewIndex(sampleDir)
	inputs := []string{
		"Stormriders Thudd", "Storm", "Stor", "Blood Pit Bouncers Gnash Skull",
		"bumson x", "Bumson Medic", "", "Ω Team", "Bumson Medics",
	}
	for _, in := range inputs {
		t1, r1, ok1 := lin.SplitPrefix(in)
		t2, r2, ok2 := idx.SplitPrefix(in)
		assert.Equal(t, []any{t1, r1, ok1}, []any{t2, r2, ok2}, "input %q", in)
	}
}

func TestSplitTeamNameFallback(t *testing.T) {
	m := NewIndex(sampleDir)

	team, name, ok := SplitTeamName("Unknown Crew Big Mike", m)
	require.True(t, ok)
	assert.Equal(t, "Unknown Crew", team)
	assert.Equal(t, "Big Mike", name)

	team, name, ok = SplitTeamName("Big Mike", m)
	require.True(t, ok)
	assert.Equal(t, "", team)
	assert.Equal(t, "Big Mike", name)

	_, _, ok = SplitTeamName("Mononym", m)
	assert.False(t, ok)
}

func TestParseIDs(t *testing.T) {
	ids, err := ParseIDs("5, 1-3,2")
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3, 5}, ids)

	for _, bad := range []string{"", "x", "3-1", "30-33", "1-x"} {
		_, err := ParseIDs(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestDirectoryNormalize(t *testing.T) {
	in := Directory{{ID: 9, Name: "B"}, {ID: 2, Name: "A"}, {ID: 9, Name: "dup"}, {ID: 40, Name: "far"}, {ID: 4, Name: " "}}
	want := Directory{{ID: 2, Name: "A"}, {ID: 9, Name: "B"}}
	if diff := cmp.Diff(want, in.Normalize()); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTeamsPageLeagueTable(t *testing.T) {
	html := `
	<html><body>
	<table class="league">
	  <tr><td class="namecheck"><a href="team.php?i=31">Eduslum Marching Band</a> (4-1)</td></tr>
	  <tr><td class='namecheck big'><a href=team.php?i=4>Bumson&nbsp;Medics</a></td></tr>
	  <tr><td class="namecheck"><a href="team.php?i=4">Bumson Medics</a></td></tr>
	</table>
	<ul class="mega-links"><li><a href="team.php?i=1">Short</a></li></ul>
	</body></html>`

	dir, err := ParseTeamsPage(html)
	require.NoError(t, err)
	want := Directory{{ID: 4, Name: "Bumson Medics"}, {ID: 31, Name: "Eduslum Marching Band"}}
	if diff := cmp.Diff(want, dir); diff != "" {
		t.Errorf("ParseTeamsPage mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTeamsPageMegaMenuFallback(t *testing.T) {
	html := `<div><ul class="nav mega-links">
	  <li><a href="team.php?i=12">Bouncers</a></li>
	  <li><a href="/other.php">Other</a></li>
	  <li><a href="TEAM.PHP?i=2">Medics</a></li>
	</ul></div>`

	dir, err := ParseTeamsPage(html)
	require.NoError(t, err)
	assert.Equal(t, Directory{{ID: 2, Name: "Medics"}, {ID: 12, Name: "Bouncers"}}, dir)

	_, err = ParseTeamsPage("<html></html>")
	assert.Error(t, err)
}

func TestValidateTeamName(t *testing.T) {
	page := func(title, tab string) string {
		return `<html><head><title>` + title + `</title></head><body>
		<table class=teamenu>
		  <tr><td colspan="100%"><table class=cleantable><tr>
		    <td class="teamenuhead">&nbsp;Failurewood Hills</td>
		  </tr></table></td></tr>
		  <tr>` + tab + `</tr>
		</table></body></html>`
	}

	name, err := ValidateTeamName(page("Failurewood Hills", `<td class="teamenuactive"><strong>Failurewood Hills</strong></td>`), 20)
	require.NoError(t, err)
	assert.Equal(t, "Failurewood Hills", name)

	_, err = ValidateTeamName(page("Wrong Team", `<td class="teamenuactive"><strong>Failurewood Hills</strong></td>`), 20)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTeamNameMismatch))

	_, err = ValidateTeamName(page("Failurewood Hills", ""), 20)
	assert.ErrorIs(t, err, ErrTeamNameMismatch)
}

func TestTeamFileRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleDir))
	assert.True(t, strings.HasPrefix(buf.String(), "3,Storm\n7,Stormriders\n"))

	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, WriteFile(path, sampleDir))
	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleDir, got)

	_, err = Read(strings.NewReader("nocomma\n"))
	assert.Error(t, err)
}
