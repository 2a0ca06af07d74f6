package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/msto63/chomsky/internal/grammar"
)

var lexiconExport bool

var lexiconCmd = &cobra.Command{
	Use:   "lexicon",
	Short: "Show the word lists of the lexicon",
	Long: `Show the words of every category. With --export the lexicon is written
as YAML that can be edited and loaded again with --lexicon.`,
	Args: cobra.NoArgs,
	RunE: runLexicon,
}

func init() {
	rootCmd.AddCommand(lexiconCmd)
	lexiconCmd.Flags().BoolVar(&lexiconExport, "export", false, "write the lexicon as YAML")
}

func runLexicon(cmd *cobra.Command, args []string) error {
	lex, err := loadLexicon()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if lexiconExport {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(lex); err != nil {
			return wrapError("failed to export lexicon", err)
		}
		return enc.Close()
	}

	for _, c := range grammar.WordCategories() {
		fmt.Fprintf(out, "%-10s %s\n", c.String()+":", strings.Join(lex.Words(c), ", "))
	}
	fmt.Fprintf(out, "\n%d words, end marker %q\n", lex.Size(), grammar.EndMarker)
	return nil
}
