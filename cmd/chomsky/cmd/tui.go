package cmd

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/msto63/chomsky/internal/checker"
	"github.com/msto63/chomsky/internal/server"
	"github.com/msto63/chomsky/internal/tui"
	coregrpc "github.com/msto63/chomsky/pkg/core/grpc"
)

var tuiRemote string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive checker",
	Long: `Start the terminal user interface.

Keys:
  Enter     check the sentence
  Tab       show or hide parse trees
  Ctrl+L    clear the history
  Esc       quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().StringVar(&tuiRemote, "remote", "", "check against a running service (gRPC address)")
}

func runTUI(cmd *cobra.Command, args []string) error {
	var check tui.CheckFunc
	target := "local"

	if tuiRemote != "" {
		conn, err := coregrpc.DialSimple(tuiRemote)
		if err != nil {
			return wrapError("failed to connect", err)
		}
		defer conn.Close()

		client := server.NewClient(conn)
		check = func(ctx context.Context, sentence string) (checker.Verdict, error) {
			return client.Check(ctx, sentence)
		}
		target = tuiRemote
	} else {
		parser, err := newParser()
		if err != nil {
			return err
		}
		check = tui.LocalCheck(checker.New(checker.Options{Parser: parser}))
	}

	p := tea.NewProgram(tui.NewModel(check, target), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return wrapError("TUI failed", err)
	}
	return nil
}
