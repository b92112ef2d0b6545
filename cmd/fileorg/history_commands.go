package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"fileorg/internal/history"
	"fileorg/internal/textutil"
)

const historyTimeLayout = "2006-01-02 15:04:05"

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent organize runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						textutil.ShortID(run.ID),
						run.StartedAt.Local().Format(historyTimeLayout),
						string(run.State),
						fmt.Sprintf("%d/%d", run.Succeeded, run.Scanned),
						strconv.Itoa(run.Failed),
						textutil.TruncateMiddle(run.Source, 32),
						textutil.TruncateMiddle(run.Destination, 32),
					})
				}
				fmt.Fprintln(out, tableSpec{
					headers: []string{"Run", "Started", "State", "Organized", "Failed", "Source", "Destination"},
					aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
					rows:    rows,
				}.render())
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show the files processed by one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				run, err := store.FindRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				transfers, err := store.Transfers(cmd.Context(), run.ID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run:         %s\n", run.ID)
				fmt.Fprintf(out, "State:       %s\n", run.State)
				fmt.Fprintf(out, "Source:      %s\n", run.Source)
				fmt.Fprintf(out, "Destination: %s\n", run.Destination)
				fmt.Fprintf(out, "Started:     %s\n", run.StartedAt.Local().Format(historyTimeLayout))
				if d := run.Duration(); d > 0 {
					fmt.Fprintf(out, "Duration:    %s\n", d.Round(time.Millisecond))
				}
				fmt.Fprintf(out, "Files:       %d organized, %d failed of %d scanned\n", run.Succeeded, run.Failed, run.Scanned)
				if run.Error != "" {
					fmt.Fprintf(out, "Error:       %s\n", run.Error)
				}
				if len(transfers) == 0 {
					return nil
				}

				rows := make([][]string, 0, len(transfers))
				for _, tr := range transfers {
					target := tr.Target
					if rel, err := filepath.Rel(run.Destination, tr.Target); err == nil && tr.Target != "" {
						target = rel
					}
					if tr.Status == history.TransferFailed {
						target = "failed: " + tr.Error
					}
					rows = append(rows, []string{
						textutil.TruncateMiddle(tr.Source, 40),
						tr.Kind,
						tr.Method,
						textutil.TruncateMiddle(target, 60),
					})
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, tableSpec{
					headers: []string{"Source", "Kind", "Method", "Target"},
					rows:    rows,
				}.render())
				return nil
			})
		},
	}
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}
