// Package extract turns league pages into fixed-width rows. Every extractor is
// a pure function of its input document: no I/O, no logging, no shared state.
package extract

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

// Page identifies a kind of league page and the table it produces.
type Page string

const (
	PagePlayers     Page = "players"
	PageGameResults Page = "game_results"
	PageInjuries    Page = "injuries"
	PageTeams       Page = "teams"
)

// Pages lists every page kind that yields a table.
var Pages = []Page{PagePlayers, PageGameResults, PageInjuries}

// ParsePage validates a page name.
func ParsePage(s string) (Page, error) {
	switch p := Page(strings.ToLower(strings.TrimSpace(s))); p {
	case PagePlayers, PageGameResults, PageInjuries, PageTeams:
		return p, nil
	case "results", "games":
		return PageGameResults, nil
	}
	return "", fmt.Errorf("unknown page %q (want players, game_results, injuries or teams)", s)
}

// TeamColumn is the column holding a team name used for per-team grouping,
// or -1 when the page has no single team column.
func (p Page) TeamColumn() int {
	switch p {
	case PagePlayers:
		return RosterTeamCol
	case PageTeams:
		return 1
	}
	return -1
}

// Bundle is an optional header row plus fully-populated rows.
type Bundle struct {
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows"`
}

// Len is the number of data rows.
func (b Bundle) Len() int { return len(b.Rows) }

// Fingerprint hashes headers and rows. Identical bundles always hash the same.
func (b Bundle) Fingerprint() uint64 {
	var buf []byte
	appendRow := func(row []string) {
		for i, f := range row {
			if i > 0 {
				buf = append(buf, 0x1f)
			}
			buf = append(buf, f...)
		}
		buf = append(buf, 0x1e)
	}
	appendRow(b.Headers)
	buf = append(buf, 0x1d)
	for _, r := range b.Rows {
		appendRow(r)
	}
	return xxh3.Hash(buf)
}

// Clone deep-copies the bundle.
func (b Bundle) Clone() Bundle {
	out := Bundle{Headers: append([]string(nil), b.Headers...)}
	out.Rows = make([][]string, len(b.Rows))
	for i, r := range b.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	return out
}
