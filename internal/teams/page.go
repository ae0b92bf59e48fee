package teams

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/brutalball/internal/htmltext"
)

const teamHrefMarker = "team.php?i="

// ErrTeamNameMismatch is returned when a team page disagrees with itself about the team's name.
var ErrTeamNameMismatch = errors.New("team name mismatch")

// ParseHTML converts raw HTML to a goquery Document.
func ParseHTML(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// ParseTeamsPage reads the canonical team list from the league index page.
// The league table (td.namecheck anchors, full names) is preferred; the
// mega-menu (short names) is the fallback.
func ParseTeamsPage(html string) (Directory, error) {
	doc, err := ParseHTML(html)
	if err != nil {
		return nil, err
	}

	var dir Directory
	doc.Find("table").First().Find("td[class*='namecheck']").Each(func(_ int, td *goquery.Selection) {
		if t, ok := teamFromAnchor(td.Find("a").First()); ok {
			dir = append(dir, t)
		}
	})

	if len(dir) == 0 {
		doc.Find("ul[class*='mega-links'] a").Each(func(_ int, a *goquery.Selection) {
			if t, ok := teamFromAnchor(a); ok {
				dir = append(dir, t)
			}
		})
	}

	dir = dir.Normalize()
	if len(dir) == 0 {
		return nil, errors.New("no teams found on index page")
	}
	return dir, nil
}

func teamFromAnchor(a *goquery.Selection) (Team, bool) {
	href, ok := a.Attr("href")
	if !ok {
		return Team{}, false
	}
	i := htmltext.IndexFold(href, teamHrefMarker, 0)
	if i < 0 {
		return Team{}, false
	}
	digits, _ := htmltext.LeadingDigits(href[i+len(teamHrefMarker):])
	id, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return Team{}, false
	}
	name := htmltext.NormalizeWhitespace(a.Text())
	if name == "" {
		return Team{}, false
	}
	return Team{ID: uint32(id), Name: name}, true
}

// ValidateTeamName checks the three places a team page names its team (the
// <title>, the active tab and the menu header) and returns the name when all
// three are present and agree.
func ValidateTeamName(html string, teamID uint32) (string, error) {
	doc, err := ParseHTML(html)
	if err != nil {
		return "", err
	}

	title := htmltext.NormalizeWhitespace(doc.Find("title").First().Text())
	tab := htmltext.NormalizeWhitespace(doc.Find("td.teamenuactive").First().Text())
	header := htmltext.LettersOnlyTrim(doc.Find("td.teamenuhead").First().Text())

	if title == "" || title != tab || tab != header {
		return "", fmt.Errorf("%w for team %d: title=%q active_tab=%q menu_header=%q",
			ErrTeamNameMismatch, teamID, title, tab, header)
	}
	return title, nil
}
