package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fortuna/brutalball/internal/export"
	"github.com/fortuna/brutalball/internal/extract"
	"github.com/fortuna/brutalball/internal/teams"
)

// DefaultDir is where tables are kept on disk.
const DefaultDir = "out"

// FileCache keeps one CSV per page under <root>/<page>/<page>.csv, headers
// first. For players, per-team CSVs in the same directory that are newer than
// the merged file replace that team's rows when the table is loaded.
type FileCache struct {
	root string
}

// NewFileCache roots the cache at dir
func NewFileCache(dir string) *FileCache {
	if dir == "" {
		dir = DefaultDir
	}
	return &FileCache{root: dir}
}

// Dir is the directory holding a page's files.
func (fc *FileCache) Dir(p extract.Page) string {
	return filepath.Join(fc.root, string(p))
}

// Path is the merged CSV of a page.
func (fc *FileCache) Path(p extract.Page) string {
	return filepath.Join(fc.Dir(p), string(p)+".csv")
}

// SetTable writes the merged CSV of p.
func (fc *FileCache) SetTable(_ context.Context, p extract.Page, b extract.Bundle) error {
	return export.WriteFile(fc.Path(p), b, export.FormatCSV, export.Options{Sep: ',', IncludeHeaders: true})
}

// GetTable reads the merged CSV of p, overlaying newer per-team files for
// players. It returns ErrNotFound when nothing is on disk.
func (fc *FileCache) GetTable(_ context.Context, p extract.Page) (extract.Bundle, error) {
	merged := fc.Path(p)
	b, err := export.ReadBundle(merged, p)
	var mergedAt time.Time
	switch {
	case err == nil:
		if st, statErr := os.Stat(merged); statErr == nil {
			mergedAt = st.ModTime()
		}
	case errors.Is(err, fs.ErrNotExist):
		if p != extract.PagePlayers {
			return extract.Bundle{}, ErrNotFound
		}
	default:
		return extract.Bundle{}, err
	}

	if p != extract.PagePlayers {
		return b, nil
	}

	overlays, err := fc.newerTeamFiles(p, mergedAt)
	if err != nil {
		return extract.Bundle{}, err
	}
	if len(overlays) == 0 && b.Headers == nil && b.Rows == nil {
		return extract.Bundle{}, ErrNotFound
	}
	for _, path := range overlays {
		part, err := export.ReadBundle(path, p)
		if err != nil {
			return extract.Bundle{}, err
		}
		b = extract.ReplaceByTeam(b, part, extract.RosterTeamCol)
	}
	return b, nil
}

// newerTeamFiles lists per-team CSVs modified after since, oldest first.
func (fc *FileCache) newerTeamFiles(p extract.Page, since time.Time) ([]string, error) {
	entries, err := os.ReadDir(fc.Dir(p))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", fc.Dir(p), err)
	}

	type stamped struct {
		path string
		at   time.Time
	}
	var out []stamped
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == string(p)+".csv" || !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !since.IsZero() && !info.ModTime().After(since) {
			continue
		}
		out = append(out, stamped{filepath.Join(fc.Dir(p), name), info.ModTime()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].at.Before(out[j].at) })

	paths := make([]string, len(out))
	for i, s := range out {
		paths[i] = s.path
	}
	return paths, nil
}

// TeamsPath is the team directory file.
func (fc *FileCache) TeamsPath() string {
	return filepath.Join(fc.root, teams.DefaultFile)
}

// SetTeams writes the team directory file.
func (fc *FileCache) SetTeams(_ context.Context, dir teams.Directory) error {
	if err := export.EnsureDir(fc.root); err != nil {
		return err
	}
	return teams.WriteFile(fc.TeamsPath(), dir)
}

// GetTeams reads the team directory file. It returns ErrNotFound when the
// file is missing or lists no teams.
func (fc *FileCache) GetTeams(_ context.Context) (teams.Directory, error) {
	dir, err := teams.ReadFile(fc.TeamsPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(dir) == 0 {
		return nil, ErrNotFound
	}
	return dir, nil
}
