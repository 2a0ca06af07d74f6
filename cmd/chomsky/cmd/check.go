package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/msto63/chomsky/internal/checker"
	"github.com/msto63/chomsky/internal/source"
	"github.com/msto63/chomsky/internal/store"
)

var (
	checkTree    bool
	checkWorkers int
	checkRecord  bool
	checkStrict  bool
	checkColor   string
)

var checkCmd = &cobra.Command{
	Use:   "check [file...]",
	Short: "Check the sentences of one or more files",
	Long: `Check every line of the given files, or of stdin when no file or "-"
is given. Blank lines are skipped and lines starting with the comment
prefix are echoed.

Examples:
  chomsky check sentences.txt
  chomsky check --tree sentences.txt > trees.txt
  echo "the dog loves a cat" | chomsky check`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVarP(&checkTree, "tree", "t", false, "print the parse tree document of every sentence")
	checkCmd.Flags().IntVarP(&checkWorkers, "workers", "w", 1, "number of sentences parsed in parallel")
	checkCmd.Flags().BoolVar(&checkRecord, "record", false, "record the results in the result store")
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "exit non-zero when a sentence is rejected")
	checkCmd.Flags().StringVar(&checkColor, "color", "auto", "styled output: auto, always, never")
}

func runCheck(cmd *cobra.Command, args []string) error {
	// flags win over the config file
	opts := appConfig.Check
	if cmd.Flags().Changed("tree") {
		opts.EmitTree = checkTree
	}
	if cmd.Flags().Changed("workers") {
		opts.Workers = checkWorkers
	}
	if cmd.Flags().Changed("record") {
		opts.Record = checkRecord
	}
	if cmd.Flags().Changed("color") {
		opts.Color = checkColor
	}
	if opts.Workers < 1 {
		return fmt.Errorf("invalid worker count: %d", opts.Workers)
	}

	mode := checker.ColorMode(opts.Color)
	switch mode {
	case checker.ColorAuto, checker.ColorAlways, checker.ColorNever:
	default:
		return fmt.Errorf("invalid color mode %q: use auto, always or never", opts.Color)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	items, err := source.Collect(args, cmd.InOrStdin(), opts.CommentPrefix)
	if err != nil {
		return wrapError("failed to read input", err)
	}

	parser, err := newParser()
	if err != nil {
		return err
	}
	c := checker.New(checker.Options{Parser: parser, Workers: opts.Workers})

	reporter := checker.NewReporter(cmd.OutOrStdout(), opts.EmitTree, mode)
	sinks := []checker.Sink{reporter}

	var runSink *store.RunSink
	if opts.Record {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		run, err := st.CreateRun(ctx, source.Name(args))
		if err != nil {
			return wrapError("failed to record run", err)
		}
		runSink = store.NewRunSink(ctx, st, run)
		sinks = append(sinks, runSink)
	}

	summary, err := c.Run(ctx, items, checker.MultiSink(sinks...))
	if err != nil {
		return wrapError("check failed", err)
	}
	if err := reporter.Summary(summary); err != nil {
		return wrapError("failed to write output", err)
	}

	if runSink != nil {
		if err := runSink.Finish(summary); err != nil {
			return wrapError("failed to record run", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Recorded run %s\n", runSink.RunID())
	}

	if checkStrict && summary.Failed > 0 {
		return errRejected
	}
	return nil
}
