package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fortuna/brutalball/internal/htmltext"
)

// RosterTeamCol is the roster column holding the team name.
const RosterTeamCol = 3

// ErrRosterTableNotFound means a team page had no roster table.
var ErrRosterTableNotFound = errors.New("teamroster table not found")

var rosterFixedHeaders = []string{"Name", "Number", "Race", "Team"}

// RosterOptions controls roster extraction.
type RosterOptions struct {
	// KeepHash keeps the leading '#' on player numbers.
	KeepHash bool
	// TeamName overrides the name read from the roster table, e.g. a name
	// already validated against the page header.
	TeamName string
}

// ExtractRoster reads the roster table of one team page.
func ExtractRoster(doc string, teamID uint32, opts RosterOptions) (Bundle, error) {
	table, ok := htmltext.SliceBetween(doc, "<table class=teamroster", "</table>")
	if !ok {
		return Bundle{}, fmt.Errorf("team %d: %w", teamID, ErrRosterTableNotFound)
	}

	team := opts.TeamName
	if team == "" {
		team = rosterTeamName(table)
	}
	if team == "" {
		team = fmt.Sprintf("Team %d", teamID)
	}

	out := Bundle{Headers: rosterHeaders(siteHeaders(table))}

	pos := 0
	for {
		tr, ok := htmltext.NextTagBlock(table, "<tr", "</tr>", pos)
		if !ok {
			break
		}
		pos = tr.End
		row := tr.Text(table)
		if !isPlayerRow(row, 200) {
			continue
		}

		cells := cellTexts(row)
		if len(cells) == 0 {
			continue
		}
		name, number, race := SplitFusedCell(htmltext.StripBracketTags(cells[0]), opts.KeepHash)

		r := make([]string, 0, 4+len(cells)-1)
		r = append(r, name, number, race, team)
		r = append(r, cells[1:]...)
		out.Rows = append(out.Rows, r)
	}
	return out, nil
}

// SplitFusedCell splits "Name #27 Common Drakon" into name, number and race.
// The number keeps its '#' only when keepHash is set.
func SplitFusedCell(fused string, keepHash bool) (name, number, race string) {
	h := strings.IndexByte(fused, '#')
	if h < 0 {
		return htmltext.NormalizeWhitespace(fused), "", ""
	}
	name = htmltext.NormalizeWhitespace(fused[:h])
	number, race, _ = strings.Cut(strings.TrimSpace(fused[h:]), " ")
	if !keepHash {
		number = strings.TrimLeft(number, "#")
	}
	return name, number, htmltext.NormalizeWhitespace(race)
}

func rosterHeaders(site []string) []string {
	hdr := append([]string(nil), rosterFixedHeaders...)
	if len(site) > 0 && htmltext.ContainsFold(site[0], "name") {
		site = site[1:]
	}
	return append(hdr, site...)
}

// siteHeaders reads the first run of consecutive <th> cells. They are not
// necessarily wrapped in a <tr>.
func siteHeaders(table string) []string {
	var headers []string
	pos := 0
	for {
		th, ok := htmltext.NextTagBlock(table, "<th", "</th>", pos)
		if !ok {
			break
		}
		headers = append(headers, htmltext.CellText(htmltext.InnerAfterOpenTag(th.Text(table))))
		pos = th.End
		next := strings.TrimLeft(table[pos:], " \t\r\n")
		if !strings.HasPrefix(htmltext.ToLowerASCII(next[:min(len(next), 3)]), "<th") {
			break
		}
	}
	return headers
}

// rosterTeamName reads the team's display name from the first cell of the
// roster table, dropping the owner/division tail and the win/loss record.
func rosterTeamName(table string) string {
	tr, ok := htmltext.NextTagBlock(table, "<tr", "</tr>", 0)
	if !ok {
		return ""
	}
	row := tr.Text(table)
	td, ok := htmltext.NextTagBlock(row, "<td", "</td>", 0)
	if !ok {
		return ""
	}
	txt := htmltext.CellText(htmltext.InnerAfterOpenTag(td.Text(row)))
	if i := strings.Index(txt, " Team owner"); i >= 0 {
		txt = txt[:i]
	} else if i := strings.Index(txt, " | "); i >= 0 {
		txt = txt[:i]
	}
	return htmltext.LettersOnlyTrim(htmltext.StripRecordSuffix(txt))
}

func isPlayerRow(row string, head int) bool {
	lc := htmltext.ToLowerASCII(row[:min(len(row), head)])
	return strings.Contains(lc, `class="playerrow"`) || strings.Contains(lc, `class="playerrow1"`)
}

func cellTexts(row string) []string {
	var cells []string
	pos := 0
	for {
		td, ok := htmltext.NextTagBlock(row, "<td", "</td>", pos)
		if !ok {
			return cells
		}
		cells = append(cells, htmltext.CellText(htmltext.InnerAfterOpenTag(td.Text(row))))
		pos = td.End
	}
}
