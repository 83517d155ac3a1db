package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pevans/newsdocs/history"
)

var errNoHistory = errors.New("history is not configured, set history.dsn")

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs and saved documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := load(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.History == nil {
				return errNoHistory
			}

			runs, err := a.History.Runs(limit)
			if err != nil {
				return err
			}
			papers, err := a.History.RecentPapers(limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, runs, papers)
			}
			printTable(out, runs, papers)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs and documents to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printTable(w io.Writer, runs []history.Run, papers []history.Paper) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	fmt.Fprintln(w, "Runs:")
	for _, r := range runs {
		status := "ok"
		if !r.OK {
			status = "FAILED"
		}
		fmt.Fprintf(w, "  %s  %-10s %-6s new=%d skipped=%d failed=%d\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"), r.Site, status, r.New, r.Skipped, r.Failed)
	}

	if len(papers) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Documents:")
	for _, p := range papers {
		fmt.Fprintf(w, "  %s  [%s] %s\n", p.CreatedAt.Local().Format("2006-01-02 15:04"), p.Site, p.FileName)
	}
}

func printJSON(w io.Writer, runs []history.Run, papers []history.Paper) error {
	data, err := json.MarshalIndent(map[string]any{
		"runs":   runs,
		"papers": papers,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}
