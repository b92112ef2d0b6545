package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fileorg/internal/history"
	"fileorg/internal/logging"
	"fileorg/internal/organizer"
	"fileorg/internal/signature"
	"fileorg/internal/textutil"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var (
		flat          bool
		noEnrich      bool
		move          bool
		quiet         bool
		progressEvery int
		workers       int
	)

	cmd := &cobra.Command{
		Use:   "organize SRC DST",
		Short: "Copy files from SRC into category folders under DST",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			job := organizer.JobFromConfig(cfg, args[0], args[1])
			flags := cmd.Flags()
			if flags.Changed("flat") {
				job.ByCategory = !flat
			}
			if flags.Changed("no-enrich") {
				job.EnrichFilenames = !noEnrich
			}
			if flags.Changed("move") {
				job.Move = move
			}
			if flags.Changed("progress-every") {
				job.ProgressEvery = progressEvery
			}
			if flags.Changed("workers") {
				job.Workers = workers
			}

			var opts []organizer.Option
			if cfg.Organize.History {
				store, err := history.Open(cfg)
				if err != nil {
					logging.WarnWithContext(logger, "run history unavailable", "history_unavailable",
						logging.Error(err),
						logging.String(logging.FieldImpact, "this run is not recorded"),
						logging.String(logging.FieldErrorHint, "delete the history database or set organize.history = false"),
					)
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: run history unavailable: %v\n", err)
				} else {
					defer store.Close()
					opts = append(opts, organizer.WithHistory(store))
				}
			}

			stop := cancelOnSignal(job.Cancel)
			defer stop()

			out := cmd.OutOrStdout()
			org := organizer.New(cfg, logger, opts...)
			result := org.Run(cmd.Context(), job, newCLISink(out, quiet))
			printSummary(out, result, shouldColorize(out))

			switch {
			case result.Err != nil:
				return result.Err
			case result.Stats.Failed > 0:
				return fmt.Errorf("%s could not be organized", textutil.Plural(result.Stats.Failed, "file", "files"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flat, "flat", false, "Place files directly in DST without category folders")
	cmd.Flags().BoolVar(&noEnrich, "no-enrich", false, "Keep original file names without metadata tokens")
	cmd.Flags().BoolVar(&move, "move", false, "Move files instead of copying them")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print progress, warnings, and errors")
	cmd.Flags().IntVar(&progressEvery, "progress-every", 10, "Report progress every N files")
	cmd.Flags().IntVar(&workers, "workers", 1, "Number of files processed in parallel")
	return cmd
}

// cancelOnSignal sets the cancellation flag on SIGINT or SIGTERM.
func cancelOnSignal(canceller *organizer.Canceller) func() {
	signals := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-signals:
			canceller.Cancel()
		case <-done:
		}
	}()
	return func() {
		signal.Stop(signals)
		close(done)
	}
}

func printSummary(out io.Writer, result organizer.Result, color bool) {
	fmt.Fprintln(out)

	categories := make([]signature.Category, 0, len(result.Stats.PerCategory))
	for category := range result.Stats.PerCategory {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	rows := make([][]string, 0, len(categories))
	for _, category := range categories {
		rows = append(rows, []string{category.String(), strconv.Itoa(result.Stats.PerCategory[category])})
	}
	fmt.Fprintln(out, tableSpec{
		title:   "Run " + textutil.ShortID(result.RunID),
		headers: []string{"Category", "Files"},
		aligns:  []columnAlignment{alignLeft, alignRight},
		rows:    rows,
		footer:  []string{"Total", strconv.Itoa(result.Stats.Succeeded)},
	}.render())

	fmt.Fprintf(out, "State:    %s\n", stateLabel(result.State, color))
	fmt.Fprintf(out, "Scanned:  %s in %s\n",
		textutil.Plural(result.Stats.Scanned, "file", "files"),
		textutil.Plural(result.Stats.Folders, "folder", "folders"))
	fmt.Fprintf(out, "Failed:   %d\n", result.Stats.Failed)
	fmt.Fprintf(out, "Duration: %s\n", result.Duration().Round(time.Millisecond))
	fmt.Fprintf(out, "Run ID:   %s\n", result.RunID)
	if result.Err != nil && !errors.Is(result.Err, context.Canceled) {
		fmt.Fprintf(out, "Error:    %v\n", result.Err)
	}

	if len(result.Failures) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, paint(color, ansiRed, "Files not organized:"))
		for _, failure := range result.Failures {
			fmt.Fprintf(out, "  %s: %s\n", failure.Path, failure.Message)
		}
	}
}

func stateLabel(state organizer.State, color bool) string {
	switch state {
	case organizer.StateCompleted:
		return paint(color, ansiGreen, string(state))
	case organizer.StateCancelled:
		return paint(color, ansiYellow, string(state))
	case organizer.StateFailed:
		return paint(color, ansiRed, string(state))
	default:
		return string(state)
	}
}
