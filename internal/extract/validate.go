package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fortuna/brutalball/internal/teams"
)

// ErrInvalidResults marks a game-results table that fails the schedule checks.
var ErrInvalidResults = errors.New("invalid game results")

// ValidateGameResults checks a scraped results table against the directory:
// every row names two distinct known teams, no pairing or match id repeats,
// and each (season, week) lists every team exactly once.
func ValidateGameResults(dir teams.Directory, b Bundle) error {
	n := len(dir)
	if n == 0 || n > teams.MaxTeams {
		return fmt.Errorf("%w: expected 1..%d teams, got %d", ErrInvalidResults, teams.MaxTeams, n)
	}
	full := uint32(1<<n - 1)
	bit := make(map[string]uint32, n)
	for i, t := range dir {
		bit[t.Name] = 1 << i
	}

	type week struct{ season, week string }
	masks := make(map[week]uint32)
	var order []week
	pairs := make(map[string]bool)
	ids := make(map[string]bool)

	for _, r := range b.Rows {
		if len(r) < len(GameResultHeaders) {
			return fmt.Errorf("%w: row has %d columns, want %d", ErrInvalidResults, len(r), len(GameResultHeaders))
		}
		wk := week{strings.TrimSpace(r[0]), strings.TrimSpace(r[1])}
		home, away := strings.TrimSpace(r[2]), strings.TrimSpace(r[5])
		mid := strings.TrimSpace(r[6])

		if home == "" || away == "" {
			return fmt.Errorf("%w: empty team name in S=%s W=%s", ErrInvalidResults, wk.season, wk.week)
		}
		if home == away {
			return fmt.Errorf("%w: %s plays itself in S=%s W=%s", ErrInvalidResults, home, wk.season, wk.week)
		}

		a, c := min(home, away), max(home, away)
		pk := strings.Join([]string{wk.season, wk.week, a, c}, "\x1f")
		if pairs[pk] {
			return fmt.Errorf("%w: duplicate game %s v %s in S=%s W=%s", ErrInvalidResults, a, c, wk.season, wk.week)
		}
		pairs[pk] = true

		if mid != "" {
			if ids[mid] {
				return fmt.Errorf("%w: duplicate match id %s", ErrInvalidResults, mid)
			}
			ids[mid] = true
		}

		if _, ok := masks[wk]; !ok {
			order = append(order, wk)
		}
		for _, side := range []string{home, away} {
			m, ok := bit[side]
			if !ok {
				return fmt.Errorf("%w: unknown team %q", ErrInvalidResults, side)
			}
			if masks[wk]&m != 0 {
				return fmt.Errorf("%w: %s appears twice in S=%s W=%s", ErrInvalidResults, side, wk.season, wk.week)
			}
			masks[wk] |= m
		}
	}

	for _, wk := range order {
		if masks[wk] != full {
			return fmt.Errorf("%w: incomplete week S=%s W=%s (%032b, want %032b)",
				ErrInvalidResults, wk.season, wk.week, masks[wk], full)
		}
	}
	return nil
}

// ValidShape reports whether every row (and the header row, when present)
// has the column count the page produces. Players are free-form.
func ValidShape(p Page, b Bundle) bool {
	var want int
	switch p {
	case PageGameResults:
		want = len(GameResultHeaders)
	case PageInjuries:
		want = len(InjuryHeaders)
	default:
		return true
	}
	if len(b.Headers) > 0 && len(b.Headers) != want {
		return false
	}
	for _, r := range b.Rows {
		if len(r) != want {
			return false
		}
	}
	return true
}
