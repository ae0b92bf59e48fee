// Package dozer fetches pages from the Brutalball league site.
package dozer

import (
	"context"
	"fmt"
	"log"

	"github.com/fortuna/brutalball/internal/extract"
)

// Site paths, relative to BaseURL.
const (
	PathIndex    = "index.php"
	PathSeason   = "season.php"
	PathInjuries = "injury.php"
)

// SeasonProbePaths are pages whose <title> carries the season number.
var SeasonProbePaths = []string{"stat_team.php", "stat_team_performance.php"}

// TeamPath is the roster page of one team.
func TeamPath(id uint32) string {
	return fmt.Sprintf("team.php?i=%d", id)
}

// PagePath maps a single-document page kind to its path. Players are fetched
// per team and have no single path.
func PagePath(p extract.Page) (string, bool) {
	switch p {
	case extract.PageGameResults:
		return PathSeason, true
	case extract.PageInjuries:
		return PathInjuries, true
	case extract.PageTeams:
		return PathIndex, true
	}
	return "", false
}

// DetectSeason asks the stats pages for the current season number. It returns
// "" when none of them name one.
func DetectSeason(ctx context.Context, f Fetcher) string {
	for _, path := range SeasonProbePaths {
		doc, err := f.Fetch(ctx, path)
		if err != nil {
			log.Printf("[dozer-client] ⚠️  season probe %s failed: %v", path, err)
			continue
		}
		if s := extract.SeasonFromTitle(doc); s != "" {
			return s
		}
	}
	return ""
}
