package export

import (
	"fmt"
	"path/filepath"

	"github.com/fortuna/brutalball/internal/extract"
	"github.com/fortuna/brutalball/internal/htmltext"
)

// SplitByTeam writes one file per distinct value of column col into dir,
// in order of first appearance. Returns the paths written.
func SplitByTeam(dir string, b extract.Bundle, col int, f Format, opts Options) ([]string, error) {
	if col < 0 {
		return nil, fmt.Errorf("page has no team column")
	}
	if err := EnsureDir(dir); err != nil {
		return nil, err
	}

	groups := make(map[string][][]string)
	var order []string
	for _, r := range b.Rows {
		if col >= len(r) {
			continue
		}
		team := r[col]
		if _, ok := groups[team]; !ok {
			order = append(order, team)
		}
		groups[team] = append(groups[team], r)
	}

	names := newNameSet()
	written := make([]string, 0, len(order))
	for _, team := range order {
		stem := htmltext.SanitizeTeamFilename(team, 0)
		path := filepath.Join(dir, names.next(stem)+"."+f.Ext())
		part := extract.Bundle{Headers: b.Headers, Rows: groups[team]}
		if err := WriteFile(path, part, f, opts); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// nameSet hands out "stem", "stem (2)", "stem (3)" ... for repeated stems.
type nameSet map[string]int

func newNameSet() nameSet { return make(nameSet) }

func (s nameSet) next(stem string) string {
	n := s[stem]
	s[stem] = n + 1
	if n == 0 {
		return stem
	}
	return fmt.Sprintf("%s (%d)", stem, n+1)
}
