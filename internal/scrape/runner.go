// Package scrape drives the fetch layer and the extractors to produce one
// table per request.
package scrape

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fortuna/brutalball/internal/extract"
	"github.com/fortuna/brutalball/internal/ingest/dozer"
	"github.com/fortuna/brutalball/internal/teams"
)

const (
	DefaultWorkers = 4
	DefaultPause   = 75 * time.Millisecond
	// JitterMillis bounds the per-team extra pause (team id mod JitterMillis).
	JitterMillis = 40
)

// TeamHeaders are the columns of the teams table.
var TeamHeaders = []string{"ID", "Name"}

// Request describes one scrape.
type Request struct {
	Page extract.Page `json:"page"`
	// TeamIDs limits a players scrape; empty means every known team.
	TeamIDs  []uint32 `json:"team_ids,omitempty"`
	KeepHash bool     `json:"keep_hash,omitempty"`
	// Season is used when the page itself does not name one.
	Season string `json:"season,omitempty"`
}

// Reporter receives lifecycle callbacks from the runner. Callbacks may be
// invoked from worker goroutines.
type Reporter interface {
	OnStart(req Request, total int)
	OnProgress(message string, current, total int)
	OnTeamError(team teams.Team, err error)
	OnComplete(page extract.Page, rows int)
}

// Config tunes the runner.
type Config struct {
	Workers int
	Pause   time.Duration
	Variant extract.Variant
	// SkipNameCheck disables the three-way team name check on roster pages.
	SkipNameCheck bool
}

// DefaultConfig returns the polite defaults used against the live site.
func DefaultConfig() Config {
	return Config{Workers: DefaultWorkers, Pause: DefaultPause, Variant: extract.FastIdx}
}

// Runner executes scrape requests.
type Runner struct {
	fetcher dozer.Fetcher
	cfg     Config
	logger  *log.Logger

	mu  sync.Mutex
	dir teams.Directory
}

// NewRunner builds a runner. dir may be nil; it is then loaded from the
// index page on first use.
func NewRunner(fetcher dozer.Fetcher, dir teams.Directory, cfg Config, logger *log.Logger) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[scrape] ", log.LstdFlags)
	}
	return &Runner{fetcher: fetcher, cfg: cfg, logger: logger, dir: dir.Normalize()}
}

// Teams returns the team directory, fetching the index page when none is known.
func (r *Runner) Teams(ctx context.Context) (teams.Directory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.dir) > 0 {
		return r.dir, nil
	}
	dir, err := r.fetchTeams(ctx)
	if err != nil {
		return nil, err
	}
	r.dir = dir
	return dir, nil
}

// SetTeams replaces the cached directory.
func (r *Runner) SetTeams(dir teams.Directory) {
	r.mu.Lock()
	r.dir = dir.Normalize()
	r.mu.Unlock()
}

func (r *Runner) fetchTeams(ctx context.Context) (teams.Directory, error) {
	doc, err := r.fetcher.Fetch(ctx, dozer.PathIndex)
	if err != nil {
		return nil, fmt.Errorf("fetch team index: %w", err)
	}
	dir, err := teams.ParseTeamsPage(doc)
	if err != nil {
		return nil, fmt.Errorf("parse team index: %w", err)
	}
	r.logger.Printf("✓ Loaded %d teams from index", len(dir))
	return dir, nil
}

// Run executes req and returns the resulting table.
func (r *Runner) Run(ctx context.Context, req Request, reporter Reporter) (extract.Bundle, error) {
	if reporter == nil {
		reporter = nopReporter{}
	}

	var (
		out extract.Bundle
		err error
	)
	switch req.Page {
	case extract.PagePlayers:
		out, err = r.runPlayers(ctx, req, reporter)
	case extract.PageGameResults:
		reporter.OnStart(req, 1)
		out, err = r.runGameResults(ctx, req)
	case extract.PageInjuries:
		reporter.OnStart(req, 1)
		out, err = r.runInjuries(ctx, req)
	case extract.PageTeams:
		reporter.OnStart(req, 1)
		var dir teams.Directory
		if dir, err = r.fetchTeams(ctx); err == nil {
			r.SetTeams(dir)
			out = TeamsBundle(dir)
		}
	default:
		err = fmt.Errorf("unsupported page %q", req.Page)
	}
	if err != nil {
		r.logger.Printf("❌ %s scrape failed: %v", req.Page, err)
		return extract.Bundle{}, err
	}

	reporter.OnComplete(req.Page, out.Len())
	r.logger.Printf("✓ %s: %d rows", req.Page, out.Len())
	return out, nil
}

type teamResult struct {
	id     uint32
	bundle extract.Bundle
}

func (r *Runner) runPlayers(ctx context.Context, req Request, reporter Reporter) (extract.Bundle, error) {
	dir, err := r.Teams(ctx)
	if err != nil {
		return extract.Bundle{}, err
	}
	ids := req.TeamIDs
	if len(ids) == 0 {
		ids = dir.IDs()
	}
	total := len(ids)
	reporter.OnStart(req, total)

	var (
		mu      sync.Mutex
		results = make([]teamResult, 0, total)
		done    int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(r.cfg.Workers, max(total, 1)))
	for _, id := range ids {
		team, ok := dir.Lookup(id)
		if !ok {
			team = teams.Team{ID: id, Name: "Unknown Team"}
		}
		g.Go(func() error {
			b, err := r.scrapeTeam(gctx, id, req.KeepHash)

			mu.Lock()
			done++
			current := done
			if err == nil {
				results = append(results, teamResult{id: id, bundle: b})
			}
			mu.Unlock()

			if err != nil {
				r.logger.Printf("⚠️  Team %d (%s): %v", id, team.Name, err)
				reporter.OnTeamError(team, err)
			} else {
				reporter.OnProgress(fmt.Sprintf("✓ %s (%d rows)", team.Name, b.Len()), current, total)
			}

			return r.pause(gctx, id)
		})
	}
	if err := g.Wait(); err != nil {
		return extract.Bundle{}, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].id < results[j].id })
	var out extract.Bundle
	for _, res := range results {
		if out.Headers == nil {
			out.Headers = res.bundle.Headers
		}
		out.Rows = append(out.Rows, res.bundle.Rows...)
	}
	return out, nil
}

func (r *Runner) scrapeTeam(ctx context.Context, id uint32, keepHash bool) (extract.Bundle, error) {
	doc, err := r.fetcher.Fetch(ctx, dozer.TeamPath(id))
	if err != nil {
		return extract.Bundle{}, err
	}
	opts := extract.RosterOptions{KeepHash: keepHash}
	if !r.cfg.SkipNameCheck {
		if opts.TeamName, err = teams.ValidateTeamName(doc, id); err != nil {
			return extract.Bundle{}, err
		}
	}
	return extract.ExtractRoster(doc, id, opts)
}

// pause waits the fixed politeness delay plus a per-team jitter.
func (r *Runner) pause(ctx context.Context, id uint32) error {
	if r.cfg.Pause <= 0 {
		return nil
	}
	d := r.cfg.Pause + time.Duration(id%JitterMillis)*time.Millisecond
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (r *Runner) runGameResults(ctx context.Context, req Request) (extract.Bundle, error) {
	doc, err := r.fetcher.Fetch(ctx, dozer.PathSeason)
	if err != nil {
		return extract.Bundle{}, fmt.Errorf("fetch season page: %w", err)
	}
	season := req.Season
	if season == "" && extract.SeasonFromTitle(doc) == "" {
		season = dozer.DetectSeason(ctx, r.fetcher)
	}
	return extract.ExtractGameResults(doc, season), nil
}

func (r *Runner) runInjuries(ctx context.Context, req Request) (extract.Bundle, error) {
	dir, err := r.Teams(ctx)
	if err != nil {
		return extract.Bundle{}, err
	}
	doc, err := r.fetcher.Fetch(ctx, dozer.PathInjuries)
	if err != nil {
		return extract.Bundle{}, fmt.Errorf("fetch injury log: %w", err)
	}
	season := req.Season
	if season == "" && extract.SeasonFromText(doc) == "" {
		season = dozer.DetectSeason(ctx, r.fetcher)
	}
	return extract.NewInjuryParser(r.cfg.Variant, dir).ExtractInjuries(doc, season), nil
}

// TeamsBundle renders the directory as a table.
func TeamsBundle(dir teams.Directory) extract.Bundle {
	b := extract.Bundle{Headers: append([]string(nil), TeamHeaders...)}
	for _, t := range dir {
		b.Rows = append(b.Rows, []string{strconv.FormatUint(uint64(t.ID), 10), t.Name})
	}
	return b
}

type nopReporter struct{}

func (nopReporter) OnStart(Request, int) {}
func (nopReporter) OnProgress(string, int, int) {}
func (nopReporter) OnTeamError(teams.Team, error) {}
func (nopReporter) OnComplete(extract.Page, int) {}
