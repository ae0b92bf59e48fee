package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func roster(rows ...[]string) Bundle {
	return Bundle{Headers: []string{"Name", "Number", "Race", "Team"}, Rows: rows}
}

func TestReplaceByTeam(t *testing.T) {
	existing := roster(
		[]string{"a", "1", "Orc", "Storm"},
		[]string{"b", "2", "Orc", "Medics"},
		[]string{"c", "3", "Orc", "Storm"},
	)
	incoming := roster(
		[]string{"d", "4", "Elf", "Storm"},
		[]string{"e", "5", "Elf", "Bouncers"},
	)

	got := Merge(PagePlayers, existing, incoming)
	want := [][]string{
		{"d", "4", "Elf", "Storm"},
		{"b", "2", "Orc", "Medics"},
		{"e", "5", "Elf", "Bouncers"},
	}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Errorf("ReplaceByTeam mismatch (-want +got):\n%s", diff)
	}

	incoming.Rows[0][0] = "mutated"
	assert.Equal(t, "d", got.Rows[0][0], "merge result must not alias its inputs")
}

func TestUpsertGameResults(t *testing.T) {
	existing := Bundle{Rows: [][]string{
		{"5", "1", "A", "3", "1", "B", "100"},
		{"5", "2", "C", "", "", "D", ""},
	}}
	incoming := Bundle{Headers: GameResultHeaders, Rows: [][]string{
		{"5", "1", "A", "4", "1", "B", "100"},
		{"5", "2", "C", "2", "0", "D", "101"},
		{"5", "3", "E", "", "", "F", ""},
	}}

	got := Merge(PageGameResults, existing, incoming)
	assert.Equal(t, GameResultHeaders, got.Headers)
	want := [][]string{
		{"5", "1", "A", "4", "1", "B", "100"},
		{"5", "2", "C", "2", "0", "D", "101"},
		{"5", "3", "E", "", "", "F", ""},
	}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Errorf("UpsertByKey mismatch (-want +got):\n%s", diff)
	}
}

func TestInjuriesReplaceAll(t *testing.T) {
	got := Merge(PageInjuries, Bundle{Rows: [][]string{{"old"}}}, Bundle{Rows: [][]string{{"new"}}})
	assert.Equal(t, [][]string{{"new"}}, got.Rows)
}

func TestFilterTeams(t *testing.T) {
	b := roster([]string{"a", "1", "Orc", "Storm"}, []string{"b", "2", "Orc", "Medics"})
	assert.Len(t, FilterTeams(b, RosterTeamCol, []string{"Medics"}).Rows, 1)
	assert.Len(t, FilterTeams(b, RosterTeamCol, nil).Rows, 2)
	assert.Len(t, FilterTeams(b, -1, []string{"Medics"}).Rows, 2)
}

func TestFingerprint(t *testing.T) {
	a := roster([]string{"a", "1"})
	b := roster([]string{"a", "1"})
	c := roster([]string{"a1", ""})
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), Bundle{Rows: a.Rows}.Fingerprint())
}

func TestParsePage(t *testing.T) {
	p, err := ParsePage(" Results ")
	assert.NoError(t, err)
	assert.Equal(t, PageGameResults, p)
	_, err = ParsePage("stats")
	assert.Error(t, err)
	assert.Equal(t, RosterTeamCol, PagePlayers.TeamColumn())
	assert.Equal(t, -1, PageInjuries.TeamColumn())
}
