package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/fortuna/brutalball/internal/cache"
	"github.com/fortuna/brutalball/internal/export"
	"github.com/fortuna/brutalball/internal/extract"
	"github.com/fortuna/brutalball/internal/scrape"
	"github.com/fortuna/brutalball/internal/service"
	"github.com/fortuna/brutalball/internal/teams"
)

var scrapeFlags struct {
	page           string
	all            bool
	team           int
	ids            string
	out            string
	format         string
	keepHash       bool
	includeHeaders bool
	single         bool
	listTeams      bool
}

func init() {
	f := scrapeCmd.Flags()
	f.StringVar(&scrapeFlags.page, "page", "players", "page to scrape: players, game_results, injuries or teams")
	f.BoolVar(&scrapeFlags.all, "all", false, "scrape every team (players)")
	f.IntVarP(&scrapeFlags.team, "team", "t", -1, "scrape one team id (players)")
	f.StringVar(&scrapeFlags.ids, "ids", "", `team id selection such as "1-3,5" (players)`)
	f.StringVarP(&scrapeFlags.out, "out", "o", "", "output file (default <page>.<format>)")
	f.StringVar(&scrapeFlags.format, "format", "csv", "output format: csv, tsv or xlsx")
	f.BoolVar(&scrapeFlags.keepHash, "keephash", false, `keep the "#" prefix on jersey numbers`)
	f.BoolVar(&scrapeFlags.includeHeaders, "include-headers", false, "write a header row")
	f.BoolVar(&scrapeFlags.single, "single", false, "write one file only, without per-team files")
	f.BoolVar(&scrapeFlags.listTeams, "list-teams", false, "print the team directory and exit")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--page <page>] [--all | -t <id> | --ids <list>] [-o <file>]",
	Short: "Scrapes one page, updates the local table cache and exports the rows.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fetcher, release := newFetcher(cfg)
		defer release()

		svc := service.NewTableService(cache.NewFileCache(cfg.OutDir), nil, nil, nil, nil)
		known, _ := svc.Teams(ctx)
		runner := scrape.NewRunner(fetcher, known, cfg.ScrapeConfig(), nil)

		if scrapeFlags.listTeams {
			dir, err := runner.Teams(ctx)
			if err != nil {
				return err
			}
			if err := svc.SetTeams(ctx, dir); err != nil {
				return err
			}
			printTeams(cmd.OutOrStdout(), dir)
			return nil
		}

		p, err := extract.ParsePage(scrapeFlags.page)
		if err != nil {
			return err
		}
		format, err := export.ParseFormat(scrapeFlags.format)
		if err != nil {
			return err
		}
		req, err := buildRequest(p)
		if err != nil {
			return err
		}

		b, err := runner.Run(ctx, req, &progressPrinter{w: cmd.ErrOrStderr()})
		if err != nil {
			return err
		}
		if len(known) == 0 && (p == extract.PagePlayers || p == extract.PageInjuries) {
			// the runner loaded the index for this scrape
			if dir, err := runner.Teams(ctx); err == nil {
				_ = svc.SetTeams(ctx, dir)
			}
		}
		if _, err := svc.Apply(ctx, "", p, b); err != nil {
			return fmt.Errorf("updating cache: %w", err)
		}

		path := scrapeFlags.out
		if path == "" {
			path = defaultOutput(p, format)
		}
		opts := export.OptionsFor(p, format, scrapeFlags.includeHeaders, scrapeFlags.keepHash)
		if err := export.WriteFile(path, b, format, opts); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d rows)\n", path, b.Len())

		if p == extract.PagePlayers && !scrapeFlags.single {
			dir := strings.TrimSuffix(path, filepath.Ext(path)) + "_teams"
			written, err := export.SplitByTeam(dir, b, p.TeamColumn(), format, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d team files to %s\n", len(written), dir)
		}
		return nil
	},
}

func buildRequest(p extract.Page) (scrape.Request, error) {
	req := scrape.Request{Page: p, KeepHash: scrapeFlags.keepHash}
	selected := scrapeFlags.team >= 0 || scrapeFlags.ids != ""

	if p != extract.PagePlayers {
		if selected || scrapeFlags.all {
			return req, fmt.Errorf("--all, --team and --ids only apply to players")
		}
		return req, nil
	}

	switch {
	case scrapeFlags.all:
	case scrapeFlags.team >= 0:
		if scrapeFlags.team >= teams.MaxTeams {
			return req, fmt.Errorf("team id out of range (0..%d)", teams.MaxTeams-1)
		}
		req.TeamIDs = []uint32{uint32(scrapeFlags.team)}
	case scrapeFlags.ids != "":
		ids, err := teams.ParseIDs(scrapeFlags.ids)
		if err != nil {
			return req, err
		}
		req.TeamIDs = ids
	default:
		return req, errors.New("specify --all, -t <id> or --ids <list>")
	}
	return req, nil
}

func defaultOutput(p extract.Page, f export.Format) string {
	name := string(p)
	if p == extract.PagePlayers && scrapeFlags.all {
		name = "players_all"
	}
	return name + "." + f.Ext()
}

func printTeams(w io.Writer, dir teams.Directory) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"ID", "Team"})
	for _, team := range dir {
		t.AppendRow(table.Row{team.ID, team.Name})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// progressPrinter reports runner progress on the terminal.
type progressPrinter struct {
	w io.Writer
}

func (p *progressPrinter) OnStart(req scrape.Request, total int) {
	fmt.Fprintf(p.w, "Scraping %s (%d pages)\n", req.Page, total)
}

func (p *progressPrinter) OnProgress(message string, current, total int) {
	fmt.Fprintf(p.w, "[%d/%d] %s\n", current, total, message)
}

func (p *progressPrinter) OnTeamError(team teams.Team, err error) {
	fmt.Fprintf(p.w, "⚠️  skipped team %d (%s): %v\n", team.ID, team.Name, err)
}

func (p *progressPrinter) OnComplete(page extract.Page, rows int) {
	fmt.Fprintf(p.w, "✓ %s: %d rows\n", page, rows)
}

var _ scrape.Reporter = (*progressPrinter)(nil)
