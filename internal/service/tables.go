package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/fortuna/brutalball/internal/cache"
	"github.com/fortuna/brutalball/internal/extract"
	"github.com/fortuna/brutalball/internal/teams"
)

// ErrNoTable is returned when a page has never been scraped.
var ErrNoTable = errors.New("no table for page")

// TableStore is durable table storage (the Postgres table repository).
type TableStore interface {
	Save(ctx context.Context, p extract.Page, b extract.Bundle) error
	Load(ctx context.Context, p extract.Page) (extract.Bundle, error)
}

// TeamStore is durable directory storage (the Postgres team repository).
type TeamStore interface {
	List(ctx context.Context) (teams.Directory, error)
	ReplaceAll(ctx context.Context, dir teams.Directory) error
}

// Publisher announces table changes.
type Publisher interface {
	PublishIfChanged(ctx context.Context, p extract.Page, b extract.Bundle, jobID string) (bool, error)
}

// ApplyResult reports what happened to a scraped table.
type ApplyResult struct {
	Table     extract.Bundle
	Published bool
}

// TableService merges scraped tables into the cache and durable storage
type TableService struct {
	cache  cache.Cache
	tables TableStore
	teams  TeamStore
	pub    Publisher
	logger *log.Logger
}

// NewTableService wires the table service. tables, teamStore and pub may be nil.
func NewTableService(c cache.Cache, tables TableStore, teamStore TeamStore, pub Publisher, logger *log.Logger) *TableService {
	if logger == nil {
		logger = log.New(log.Writer(), "[tables] ", log.LstdFlags)
	}
	return &TableService{cache: c, tables: tables, teams: teamStore, pub: pub, logger: logger}
}

// Get returns the current table of page, optionally limited to teamNames.
func (s *TableService) Get(ctx context.Context, p extract.Page, teamNames []string) (extract.Bundle, error) {
	b, err := s.load(ctx, p)
	if err != nil {
		return extract.Bundle{}, err
	}
	return extract.FilterTeams(b, p.TeamColumn(), teamNames), nil
}

func (s *TableService) load(ctx context.Context, p extract.Page) (extract.Bundle, error) {
	b, err := s.cache.GetTable(ctx, p)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		s.logger.Printf("⚠️  cache read %s failed: %v", p, err)
	}
	if s.tables == nil {
		return extract.Bundle{}, fmt.Errorf("%s: %w", p, ErrNoTable)
	}

	b, err = s.tables.Load(ctx, p)
	if err != nil {
		return extract.Bundle{}, fmt.Errorf("%s: %w: %v", p, ErrNoTable, err)
	}
	if err := s.cache.SetTable(ctx, p, b); err != nil {
		s.logger.Printf("⚠️  cache warm %s failed: %v", p, err)
	}
	return b, nil
}

// Apply merges a freshly scraped table into the stored one with the page's
// merge policy, persists it and announces it when it changed.
func (s *TableService) Apply(ctx context.Context, jobID string, p extract.Page, incoming extract.Bundle) (ApplyResult, error) {
	if p == extract.PageGameResults {
		dir, err := s.Teams(ctx)
		if err == nil && len(dir) > 0 {
			if err := extract.ValidateGameResults(dir, incoming); err != nil {
				return ApplyResult{}, err
			}
		}
	}
	if p == extract.PageTeams {
		dir, err := directoryFromTable(incoming)
		if err != nil {
			return ApplyResult{}, err
		}
		if err := s.SetTeams(ctx, dir); err != nil {
			return ApplyResult{}, err
		}
	}

	existing, err := s.load(ctx, p)
	if err != nil && !errors.Is(err, ErrNoTable) {
		return ApplyResult{}, err
	}
	if !extract.ValidShape(p, existing) {
		s.logger.Printf("⚠️  discarding malformed cached %s table", p)
		existing = extract.Bundle{}
	}
	merged := extract.Merge(p, existing, incoming)

	if err := s.cache.SetTable(ctx, p, merged); err != nil {
		return ApplyResult{}, fmt.Errorf("caching %s: %w", p, err)
	}
	if s.tables != nil {
		if err := s.tables.Save(ctx, p, merged); err != nil {
			return ApplyResult{}, fmt.Errorf("saving %s: %w", p, err)
		}
	}

	res := ApplyResult{Table: merged}
	if s.pub != nil {
		sent, err := s.pub.PublishIfChanged(ctx, p, merged, jobID)
		if err != nil {
			s.logger.Printf("⚠️  publish %s failed: %v", p, err)
		}
		res.Published = sent
	}
	s.logger.Printf("✓ %s: %d rows stored (%d scraped)", p, merged.Len(), incoming.Len())
	return res, nil
}

// Teams returns the known team directory.
func (s *TableService) Teams(ctx context.Context) (teams.Directory, error) {
	dir, err := s.cache.GetTeams(ctx)
	if err == nil {
		return dir, nil
	}
	if s.teams == nil {
		return nil, err
	}
	dir, err = s.teams.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(dir) == 0 {
		return nil, cache.ErrNotFound
	}
	return dir, nil
}

// SetTeams stores the directory everywhere it is kept.
func (s *TableService) SetTeams(ctx context.Context, dir teams.Directory) error {
	dir = dir.Normalize()
	if err := s.cache.SetTeams(ctx, dir); err != nil {
		return fmt.Errorf("caching teams: %w", err)
	}
	if s.teams != nil {
		if err := s.teams.ReplaceAll(ctx, dir); err != nil {
			return fmt.Errorf("saving teams: %w", err)
		}
	}
	return nil
}

func directoryFromTable(b extract.Bundle) (teams.Directory, error) {
	dir := make(teams.Directory, 0, len(b.Rows))
	for _, r := range b.Rows {
		if len(r) < 2 {
			continue
		}
		id, err := strconv.ParseUint(strings.TrimSpace(r[0]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid team id %q: %w", r[0], err)
		}
		dir = append(dir, teams.Team{ID: uint32(id), Name: r[1]})
	}
	return dir, nil
}
