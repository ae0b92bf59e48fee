package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/fortuna/brutalball/internal/cache"
	"github.com/fortuna/brutalball/internal/extract"
	"github.com/fortuna/brutalball/internal/service"
)

var showFlags struct {
	teams []string
	limit int
}

func init() {
	showCmd.Flags().StringSliceVar(&showFlags.teams, "team", nil, "only rows of these team names (players, teams)")
	showCmd.Flags().IntVar(&showFlags.limit, "limit", 0, "print at most this many rows")
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <page>",
	Short: "Prints a cached table.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p, err := extract.ParsePage(args[0])
		if err != nil {
			return err
		}
		if len(showFlags.teams) > 0 && p.TeamColumn() < 0 {
			return fmt.Errorf("%s has no team column to filter on", p)
		}

		svc := service.NewTableService(cache.NewFileCache(cfg.OutDir), nil, nil, nil, nil)
		b, err := svc.Get(cmd.Context(), p, showFlags.teams)
		if err != nil {
			return fmt.Errorf("%w (run brutalball scrape --page %s first)", err, p)
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		if len(b.Headers) > 0 {
			t.AppendHeader(toRow(b.Headers))
		}
		rows := b.Rows
		if showFlags.limit > 0 && len(rows) > showFlags.limit {
			rows = rows[:showFlags.limit]
		}
		for _, r := range rows {
			t.AppendRow(toRow(r))
		}
		t.AppendFooter(table.Row{fmt.Sprintf("%d of %d rows", len(rows), b.Len())})
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}

func toRow(fields []string) table.Row {
	row := make(table.Row, len(fields))
	for i, f := range fields {
		row[i] = f
	}
	return row
}
