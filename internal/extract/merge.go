package extract

import "strings"

// Merge combines a freshly scraped bundle with a cached one according to the
// page's policy: rosters replace whole teams, game results upsert by match
// and injuries replace the entire table.
func Merge(p Page, existing, incoming Bundle) Bundle {
	switch p {
	case PagePlayers:
		return ReplaceByTeam(existing, incoming, RosterTeamCol)
	case PageGameResults:
		return UpsertByKey(existing, incoming, GameKey)
	default:
		return ReplaceAll(existing, incoming)
	}
}

// ReplaceAll discards the existing rows.
func ReplaceAll(_, incoming Bundle) Bundle {
	return incoming.Clone()
}

// ReplaceByTeam swaps every team present in incoming for its new rows. A
// replaced team keeps the position of its first existing row; teams seen for
// the first time are appended.
func ReplaceByTeam(existing, incoming Bundle, col int) Bundle {
	fresh := make(map[string][][]string)
	var order []string
	for _, r := range incoming.Rows {
		k := cell(r, col)
		if _, ok := fresh[k]; !ok {
			order = append(order, k)
		}
		fresh[k] = append(fresh[k], r)
	}

	out := Bundle{Headers: pickHeaders(existing, incoming)}
	emitted := make(map[string]bool)
	for _, r := range existing.Rows {
		k := cell(r, col)
		rows, replaced := fresh[k]
		if !replaced {
			out.Rows = append(out.Rows, r)
			continue
		}
		if !emitted[k] {
			out.Rows = append(out.Rows, rows...)
			emitted[k] = true
		}
	}
	for _, k := range order {
		if !emitted[k] {
			out.Rows = append(out.Rows, fresh[k]...)
		}
	}
	return out.Clone()
}

// GameKey identifies a game row: its match id, or week+home+away for
// fixtures that have not been played yet.
func GameKey(row []string) string {
	if id := cell(row, 6); id != "" {
		return "m:" + id
	}
	return "f:" + strings.Join([]string{cell(row, 0), cell(row, 1), cell(row, 2), cell(row, 5)}, "\x1f")
}

// UpsertByKey replaces existing rows whose key reappears in incoming and
// appends the rest. When a fixture gains a match id it replaces the keyless
// row for the same season, week and sides.
func UpsertByKey(existing, incoming Bundle, key func([]string) string) Bundle {
	pos := make(map[string]int, len(existing.Rows))
	out := Bundle{Headers: pickHeaders(existing, incoming)}
	for _, r := range existing.Rows {
		pos[key(r)] = len(out.Rows)
		out.Rows = append(out.Rows, r)
	}
	for _, r := range incoming.Rows {
		k := key(r)
		if i, ok := pos[k]; ok {
			out.Rows[i] = r
			continue
		}
		if fk := fixtureKey(r); fk != k {
			if i, ok := pos[fk]; ok {
				out.Rows[i] = r
				delete(pos, fk)
				pos[k] = i
				continue
			}
		}
		pos[k] = len(out.Rows)
		out.Rows = append(out.Rows, r)
	}
	return out.Clone()
}

func fixtureKey(row []string) string {
	return GameKey(append(append([]string(nil), row[:min(len(row), 6)]...), ""))
}

// FilterTeams keeps rows whose team column matches one of names. An empty
// name list keeps everything.
func FilterTeams(b Bundle, col int, names []string) Bundle {
	if len(names) == 0 || col < 0 {
		return b
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	out := Bundle{Headers: b.Headers}
	for _, r := range b.Rows {
		if want[cell(r, col)] {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

func pickHeaders(existing, incoming Bundle) []string {
	if len(incoming.Headers) > 0 {
		return incoming.Headers
	}
	return existing.Headers
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
