package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/brutalball/internal/teams"
)

var injuryTeams = teams.Directory{
	{ID: 1, Name: "Storm"},
	{ID: 2, Name: "Stormriders"},
	{ID: 9, Name: "Blood Pit Bouncers"},
	{ID: 12, Name: "Bumson Medics"},
}

const injuryLog = `<html><head><title>Injuries</title></head><body>
<h2>Injury report Season 12</h2>
<div class="log">
<b>W3</b> Stormriders Thudd DUR 3 Broken Arm by Blood Pit Bouncers Gnash Skull BRU 12 SR Drops from 45 to 41<br>
W5 Storm Big Ogg SR 60 DUR 99 KILLED by by Bumson Medics Doc Holl BRU 20 BOUNTY COLLECTED<br>
<span class="wk" title="a>b">W7</span>&nbsp;Unknown Crew Big Mike DUR 2 Concussion by Stormriders Zed BRU 8 SR drops from 30 to 28, BOUNTY COLLECTED<br>
W2 Bumson Medics Sawbones DUR 1 Killed outright BY Storm Rook BRU 40<br>
W4 Mononym DUR 3 Sprain by Storm Rook BRU 1<br>
No week here DUR 3 Sprain by Storm Rook BRU 1<br>
W4 Storm Thudd DUR x Sprain by Storm Rook BRU 1<br>
W11 Blood Pit Bouncers Gnash &amp; Skull DUR 4 Torn Ligament by Nobody BRU 3 Drops from 20 to<br>
W9 Storm Lone DUR 6 by Stormriders Ace BRU 5 SR Drops from 15 to 14<br>
just noise without the marker<br>
</div></body></html>`

func wantInjuryRows(season string) [][]string {
	return [][]string{
		{season, "3", "Stormriders", "Thudd", "3", "45", "41", "Broken Arm", "Blood Pit Bouncers", "Gnash Skull", "12", ""},
		{season, "5", "Storm", "Big Ogg", "99", "60", "", "KILLED", "Bumson Medics", "Doc Holl", "20", BountyCollected},
		{season, "7", "Unknown Crew", "Big Mike", "2", "30", "28", "Concussion", "Stormriders", "Zed", "8", BountyCollected},
		{season, "2", "Bumson Medics", "Sawbones", "1", "", "", "KILLED", "Storm", "Rook", "40", ""},
		{season, "11", "Blood Pit Bouncers", "Gnash   Skull", "4", "20", "", "Torn Ligament", "Nobody", "", "3", ""},
		{season, "9", "Storm", "Lone", "6", "15", "14", "", "Stormriders", "Ace", "5", ""},
	}
}

func TestExtractInjuriesAllVariants(t *testing.T) {
	for _, v := range Variants {
		t.Run(v.String(), func(t *testing.T) {
			got := NewInjuryParser(v, injuryTeams).ExtractInjuries(injuryLog, "")
			assert.Equal(t, InjuryHeaders, got.Headers)
			if diff := cmp.Diff(wantInjuryRows("12"), got.Rows); diff != "" {
				t.Errorf("rows mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInjuryVariantsAgreeOnEveryChunk(t *testing.T) {
	dirs := []teams.Directory{injuryTeams, nil, {{ID: 3, Name: "Bumson"}, {ID: 4, Name: "Bumson Medics"}}}

	chunks := EventChunks(injuryLog)
	chunks = append(chunks,
		"W1 Storm A B DUR 2 Hurt by Storm C D BRU 3 drops from12to 3",
		"W1 Storm A B DUR 2 Hurt by Storm C D BRU 3 Drops from 12 too 3 to 2",
		"W1 Storm A B DUR 2 Hurt by",
		"W1 Storm A B DUR 2 Hurt",
		"W1 Storm A B DUR 2",
		"W1  DUR 2 x by y BRU 1",
		"W1 Storm A B DUR 2 Hurt b by Storm C D BRU 3 ddrops from 5 to 4 bounty  collected",
		"W1 Storm ÆB C DUR 2 Hürt by Stormriders Ø BRU 3 Drops from 5 to 4 Bounty Collected",
		`W1 <a href="x">Storm</a> A B&amp;C DUR 2 Hurt by Storm C D BRU 3`,
		"W1 Storm A B DUR  DUR 2 x by y BRU 1",
		"WW12 Storm A B DUR 2 x by y BRU 1",
	)

	for _, dir := range dirs {
		for i, chunk := range chunks {
			ref, okRef := ParseReference(chunk, "7", dir)
			base, okBase := ParseFastBase(chunk, "7", dir)
			fast, okFast := ParseFastIdx(chunk, "7", teams.NewIndex(dir))
			require.Equal(t, okRef, okBase, "chunk %d: %q", i, chunk)
			require.Equal(t, okRef, okFast, "chunk %d: %q", i, chunk)
			if diff := cmp.Diff(ref, base); diff != "" {
				t.Errorf("chunk %d reference vs fast-base (-ref +base):\n%s", i, diff)
			}
			if diff := cmp.Diff(ref, fast); diff != "" {
				t.Errorf("chunk %d reference vs fast-idx (-ref +idx):\n%s", i, diff)
			}
			if okRef {
				assert.Len(t, ref, len(InjuryHeaders))
			}
		}
	}
}

func TestLongestTeamPrefixInInjuryLine(t *testing.T) {
	row, ok := ParseFastIdx("W1 Stormriders Thudd DUR 3 Cut by Storm Rook BRU 2", "", teams.NewIndex(injuryTeams))
	require.True(t, ok)
	assert.Equal(t, "Stormriders", row[2])
	assert.Equal(t, "Thudd", row[3])
	assert.Equal(t, "Storm", row[8])
}

func TestKilledWithoutSRDelta(t *testing.T) {
	for _, typ := range []string{"KILLED", "killed in the pit", "Kill shot"} {
		line := fmt.Sprintf("W8 Storm Rook DUR 99 %s by Stormriders Zed BRU 30", typ)
		for _, v := range Variants {
			row, ok := NewInjuryParser(v, injuryTeams).ParseLine(line, "3")
			require.True(t, ok)
			assert.Equal(t, "", row[6], "%s: SR1", v)
			assert.Equal(t, "KILLED", row[7], "%s: type", v)
		}
	}

	row, ok := ParseReference("W8 Storm Rook DUR 9 Kill shot by Stormriders Zed BRU 30 Drops from 9 to 8", "", injuryTeams)
	require.True(t, ok)
	assert.Equal(t, "Kill shot", row[7], "a line with an SR delta keeps its type")
}

func TestBountyPosition(t *testing.T) {
	before := "W8 Storm Rook DUR 2 Gash by Stormriders Zed BRU 30 BOUNTY COLLECTED Drops from 40 to 38"
	after := "W8 Storm Rook DUR 2 Gash by Stormriders Zed BRU 30 Drops from 40 to 38 BOUNTY COLLECTED"
	for _, line := range []string{before, after} {
		for _, v := range Variants {
			row, ok := NewInjuryParser(v, injuryTeams).ParseLine(line, "")
			require.True(t, ok)
			assert.Equal(t, BountyCollected, row[11])
			assert.Equal(t, "40", row[5])
			assert.Equal(t, "38", row[6])
		}
	}
}

func TestInjurySeasonFallback(t *testing.T) {
	doc := "W1 Storm Rook DUR 2 Gash by Stormriders Zed BRU 3<br>"
	got := NewInjuryParser(FastIdx, injuryTeams).ExtractInjuries(doc, "9")
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "9", got.Rows[0][0])

	assert.Equal(t, "12", SeasonFromText("x SEASON 12 y"))
	assert.Equal(t, "", SeasonFromText("season: 12"))
}

func TestExtractInjuriesIsIdempotent(t *testing.T) {
	p := NewInjuryParser(FastIdx, injuryTeams)
	a := p.ExtractInjuries(injuryLog, "")
	b := p.ExtractInjuries(injuryLog, "")
	require.Equal(t, a, b)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func BenchmarkInjuryVariants(b *testing.B) {
	doc := strings.Repeat(injuryLog, 50)
	for _, v := range Variants {
		p := NewInjuryParser(v, injuryTeams)
		b.Run(v.String(), func(b *testing.B) {
			b.SetBytes(int64(len(doc)))
			for i := 0; i < b.N; i++ {
				p.ExtractInjuries(doc, "")
			}
		})
	}
}
