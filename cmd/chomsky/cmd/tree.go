package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/chomsky/internal/grammar"
	"github.com/msto63/chomsky/internal/server"
	coregrpc "github.com/msto63/chomsky/pkg/core/grpc"
)

var treeRemote string

var treeCmd = &cobra.Command{
	Use:   "tree <sentence>",
	Short: "Print the parse tree document of one sentence",
	Long: `Parse one sentence and print its Graphviz DOT document to stdout.
The document is printed for rejected sentences too; the diagnostic goes
to stderr and the exit status is non-zero.

Examples:
  chomsky tree "the dog loves a cat" | dot -Tpng > tree.png
  chomsky tree --remote localhost:9455 "a cat chases the dog"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().StringVar(&treeRemote, "remote", "", "check against a running service (gRPC address)")
}

func runTree(cmd *cobra.Command, args []string) error {
	sentence := strings.Join(args, " ")
	if treeRemote != "" {
		return runRemoteTree(cmd, sentence)
	}

	parser, err := newParser()
	if err != nil {
		return err
	}

	tree, err := parser.Parse(sentence)
	if _, werr := tree.WriteTo(cmd.OutOrStdout()); werr != nil {
		return wrapError("failed to write tree", werr)
	}

	var mismatch *grammar.MismatchError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &mismatch):
		fmt.Fprintln(cmd.ErrOrStderr(), mismatch.Diagnostic())
		return errRejected
	default:
		return wrapError("parse failed", err)
	}
}

func runRemoteTree(cmd *cobra.Command, sentence string) error {
	conn, err := coregrpc.DialSimple(treeRemote)
	if err != nil {
		return wrapError("failed to connect", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	v, err := server.NewClient(conn).Check(ctx, sentence)
	if err != nil {
		return wrapError("remote check failed", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), v.Tree)
	if !v.Accepted {
		fmt.Fprintln(cmd.ErrOrStderr(), v.Message)
		return errRejected
	}
	return nil
}
