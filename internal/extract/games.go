package extract

import (
	"strings"

	"github.com/fortuna/brutalball/internal/htmltext"
)

// GameResultHeaders is the fixed game-results column layout.
var GameResultHeaders = []string{"S", "W", "Home team", "Home", "Away", "Away team", "Match id"}

const matchHrefMarker = "game.php?i="

// ExtractGameResults walks the season schedule. Each week is its own table
// headed by a conference cell reading "WEEK n"; other tables are skipped.
// Unplayed games produce rows with empty scores and match id.
func ExtractGameResults(doc, fallbackSeason string) Bundle {
	season := SeasonFromTitle(doc)
	if season == "" {
		season = fallbackSeason
	}

	out := Bundle{Headers: append([]string(nil), GameResultHeaders...)}
	pos := 0
	for {
		tb, ok := htmltext.NextTagBlock(doc, "<table", "</table>", pos)
		if !ok {
			break
		}
		pos = tb.End
		table := tb.Text(doc)

		week := weekNumber(table)
		if week == "" {
			continue
		}

		trPos := 0
		for {
			tr, ok := htmltext.NextTagBlock(table, "<tr", "</tr>", trPos)
			if !ok {
				break
			}
			trPos = tr.End
			row := tr.Text(table)
			if !isPlayerRow(row, 180) {
				continue
			}
			if r, ok := gameRow(row, season, week); ok {
				out.Rows = append(out.Rows, r)
			}
		}
	}
	return out
}

func gameRow(row, season, week string) ([]string, bool) {
	var tds []string
	pos := 0
	for {
		td, ok := htmltext.NextTagBlock(row, "<td", "</td>", pos)
		if !ok {
			break
		}
		tds = append(tds, td.Text(row))
		pos = td.End
	}
	if len(tds) < 3 {
		return nil, false
	}

	// The site labels the right-hand (home) column "basicaway" and the
	// left-hand (away) column "basichome".
	homeTD, awayTD := findClassCell(tds, "basicaway"), findClassCell(tds, "basichome")
	if homeTD == "" || awayTD == "" {
		awayTD, homeTD = tds[0], tds[2]
	}
	homeTeam, homeScore := gameSide(homeTD)
	awayTeam, awayScore := gameSide(awayTD)

	return []string{season, week, homeTeam, homeScore, awayScore, awayTeam, matchID(tds[len(tds)-1])}, true
}

func findClassCell(tds []string, class string) string {
	for _, td := range tds {
		op := htmltext.ToLowerASCII(htmltext.OpenerText(td))
		if strings.Contains(op, "class=") && strings.Contains(op, class) {
			return td
		}
	}
	return ""
}

// gameSide reads the team (first anchor text) and score (digits of the first
// <strong>) from one side's cell.
func gameSide(td string) (team, score string) {
	if a, ok := htmltext.NextTagBlock(td, "<a", "</a>", 0); ok {
		team = htmltext.LettersOnlyTrim(htmltext.CellText(htmltext.InnerAfterOpenTag(a.Text(td))))
	}
	if s, ok := htmltext.NextTagBlock(td, "<strong", "</strong>", 0); ok {
		score = htmltext.DigitsOnly(htmltext.CellText(htmltext.InnerAfterOpenTag(s.Text(td))))
	}
	return team, score
}

// matchID reads the digits after game.php?i= in the cell's first link target.
func matchID(td string) string {
	a, ok := htmltext.NextTagBlock(td, "<a", ">", 0)
	if !ok {
		return ""
	}
	href := hrefValue(a.Text(td))
	i := htmltext.IndexFold(href, matchHrefMarker, 0)
	if i < 0 {
		return ""
	}
	d, _ := htmltext.LeadingDigits(href[i+len(matchHrefMarker):])
	return d
}

// hrefValue extracts a quoted or unquoted href attribute value from a tag opener.
func hrefValue(opener string) string {
	hp := htmltext.IndexFold(opener, "href=", 0)
	if hp < 0 {
		return ""
	}
	val := opener[hp+len("href="):]
	if val == "" {
		return ""
	}
	if q := val[0]; q == '"' || q == '\'' {
		val = val[1:]
		if end := strings.IndexByte(val, q); end >= 0 {
			return val[:end]
		}
		return val
	}
	if end := strings.IndexAny(val, " \t\r\n>"); end >= 0 {
		return val[:end]
	}
	return val
}

// weekNumber reads "WEEK n" from the table's first conference cell. A
// conference cell without a week number ends the search.
func weekNumber(table string) string {
	pos := 0
	for {
		td, ok := htmltext.NextTagBlock(table, "<td", "</td>", pos)
		if !ok {
			return ""
		}
		pos = td.End
		block := td.Text(table)
		if !htmltext.ContainsFold(htmltext.OpenerText(block), "conference") {
			continue
		}
		text := htmltext.CellText(htmltext.InnerAfterOpenTag(block))
		if i := htmltext.IndexFold(text, "week", 0); i >= 0 {
			return htmltext.FirstDigitRun(text[i+len("week"):])
		}
		return ""
	}
}

// SeasonFromTitle reads the digits following "season" in the document's <title>.
func SeasonFromTitle(doc string) string {
	tb, ok := htmltext.NextTagBlock(doc, "<title", "</title>", 0)
	if !ok {
		return ""
	}
	title := htmltext.CellText(htmltext.InnerAfterOpenTag(tb.Text(doc)))
	i := htmltext.IndexFold(title, "season", 0)
	if i < 0 {
		return ""
	}
	return htmltext.FirstDigitRun(title[i+len("season"):])
}
