package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/fortuna/brutalball/internal/cache"
	"github.com/fortuna/brutalball/internal/extract"
	"github.com/fortuna/brutalball/internal/ingest/dozer"
	"github.com/fortuna/brutalball/internal/scrape"
	"github.com/fortuna/brutalball/internal/teams"
)

var verifyFlags struct {
	rounds int
	teams  string
}

func init() {
	verifyCmd.Flags().IntVar(&verifyFlags.rounds, "rounds", 5, "timed passes per variant")
	verifyCmd.Flags().StringVar(&verifyFlags.teams, "teams", "", "team_names.txt to use instead of the cache or the site")
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify-injuries [injury.html]",
	Short: "Runs every injury parser variant over one log and reports disagreements and timings.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fetcher, release := newFetcher(cfg)
		defer release()

		doc, err := loadInjuryLog(ctx, fetcher, args)
		if err != nil {
			return err
		}
		dir, err := loadDirectory(ctx, fetcher, cache.NewFileCache(cfg.OutDir))
		if err != nil {
			return err
		}

		report := verifyVariants(doc, dir, max(verifyFlags.rounds, 1))
		report.render(cmd.OutOrStdout())
		if report.disagreements > 0 {
			return fmt.Errorf("%d lines disagree between variants", report.disagreements)
		}
		return nil
	},
}

func loadInjuryLog(ctx context.Context, f dozer.Fetcher, args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return f.Fetch(ctx, dozer.PathInjuries)
}

func loadDirectory(ctx context.Context, f dozer.Fetcher, fc *cache.FileCache) (teams.Directory, error) {
	if verifyFlags.teams != "" {
		return teams.ReadFile(verifyFlags.teams)
	}
	if dir, err := fc.GetTeams(ctx); err == nil && len(dir) > 0 {
		return dir, nil
	}
	return scrape.NewRunner(f, nil, scrape.DefaultConfig(), nil).Teams(ctx)
}

type variantTiming struct {
	variant extract.Variant
	rows    int
	avg     time.Duration
}

type verifyReport struct {
	lines         int
	timings       []variantTiming
	disagreements int
	diffs         []string
}

// verifyVariants parses every event line with each variant, records any line
// whose rows differ from the reference, and times whole-document passes.
func verifyVariants(doc string, dir teams.Directory, rounds int) verifyReport {
	parsers := make([]*extract.InjuryParser, len(extract.Variants))
	for i, v := range extract.Variants {
		parsers[i] = extract.NewInjuryParser(v, dir)
	}

	season := extract.SeasonFromText(doc)
	chunks := extract.EventChunks(doc)
	rep := verifyReport{lines: len(chunks)}

	type result struct {
		Row []string
		OK  bool
	}
	for _, chunk := range chunks {
		ref, ok := parsers[0].ParseLine(chunk, season)
		want := result{ref, ok}
		for _, p := range parsers[1:] {
			row, ok := p.ParseLine(chunk, season)
			if diff := cmp.Diff(want, result{row, ok}); diff != "" {
				rep.disagreements++
				rep.diffs = append(rep.diffs, fmt.Sprintf("%s vs %s on %q:\n%s", parsers[0].Variant(), p.Variant(), chunk, diff))
			}
		}
	}

	for _, p := range parsers {
		var rows int
		start := time.Now()
		for range rounds {
			rows = p.ExtractInjuries(doc, "").Len()
		}
		rep.timings = append(rep.timings, variantTiming{
			variant: p.Variant(),
			rows:    rows,
			avg:     time.Since(start) / time.Duration(rounds),
		})
	}
	return rep
}

func (r verifyReport) render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Variant", "Rows", "Avg per pass"})
	for _, v := range r.timings {
		t.AppendRow(table.Row{v.variant, v.rows, v.avg.Round(time.Microsecond)})
	}
	t.AppendFooter(table.Row{"lines", r.lines, fmt.Sprintf("%d disagreements", r.disagreements)})
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.Render()

	for _, d := range r.diffs {
		fmt.Fprintln(w, d)
	}
}
