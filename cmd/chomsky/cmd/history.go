package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyTree  bool
	historyStats bool
	historyPrune time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recorded check runs",
	Long: `Without an argument, list the most recent runs recorded with
"chomsky check --record". With a run id, show the verdicts of that run.

Examples:
  chomsky history
  chomsky history 3f1c9a52-...
  chomsky history --prune 720h`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to list")
	historyCmd.Flags().BoolVarP(&historyTree, "tree", "t", false, "print the stored parse tree documents")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "show store totals")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "delete runs older than the given age")
}

func runHistory(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case historyPrune > 0:
		n, err := st.Prune(ctx, historyPrune)
		if err != nil {
			return wrapError("failed to prune runs", err)
		}
		fmt.Fprintf(out, "Deleted %d runs older than %s\n", n, historyPrune)
		return nil

	case historyStats:
		stats, err := st.Stats(ctx)
		if err != nil {
			return wrapError("failed to read stats", err)
		}
		fmt.Fprintf(out, "Runs:     %d\n", stats.Runs)
		fmt.Fprintf(out, "Results:  %d\n", stats.Results)
		fmt.Fprintf(out, "Accepted: %d\n", stats.Accepted)
		return nil

	case len(args) == 1:
		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return wrapError("failed to load run", err)
		}
		results, err := st.ListResults(ctx, run.ID)
		if err != nil {
			return wrapError("failed to load results", err)
		}

		fmt.Fprintf(out, "Run %s (%s, %s)\n\n", run.ID, run.Source, run.StartedAt.Local().Format(time.DateTime))
		for _, r := range results {
			if historyTree && r.Tree != "" {
				fmt.Fprint(out, r.Tree)
			}
			if r.Accepted {
				fmt.Fprintf(out, "%4d  PASS  %s\n", r.Line, r.Sentence)
			} else {
				fmt.Fprintf(out, "%4d  FAIL  %s  (expected %s, found '%s')\n", r.Line, r.Sentence, r.Expected, r.Found)
			}
		}
		fmt.Fprintf(out, "\n%d sentences: %d passed, %d failed\n", run.Total, run.Passed, run.Failed)
		return nil
	}

	runs, err := st.ListRuns(ctx, historyLimit)
	if err != nil {
		return wrapError("failed to list runs", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No recorded runs.")
		return nil
	}

	fmt.Fprintf(out, "%-36s  %-19s  %6s  %6s  %6s  %s\n", "ID", "STARTED", "TOTAL", "PASSED", "FAILED", "SOURCE")
	for _, r := range runs {
		fmt.Fprintf(out, "%-36s  %-19s  %6d  %6d  %6d  %s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Total, r.Passed, r.Failed, r.Source)
	}
	return nil
}
