package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msto63/chomsky/internal/grammar"
	"github.com/msto63/chomsky/internal/store"
	"github.com/msto63/chomsky/pkg/core/config"
	"github.com/msto63/chomsky/pkg/core/logging"
)

var (
	cfgFile     string
	verbose     bool
	logLevel    string
	logFormat   string
	lexiconFile string

	appConfig *config.Config
)

// errRejected makes the command exit non-zero without printing an error;
// the verdict itself has already been written.
var errRejected = errors.New("rejected")

var rootCmd = &cobra.Command{
	Use:   "chomsky",
	Short: "chomsky - grammar conformance checker",
	Long: `chomsky checks English sentences against a small context-free grammar
and draws the parse tree of every sentence as a Graphviz DOT document.

Grammar:
  S  ::= NP V NP EOS
  NP ::= A AN
  AN ::= ADJ N | N

Words outside the lexicon are rejected with a syntax error naming the
expected category.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command and prints any error to stderr
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errRejected) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./configs/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text, json, logfmt")
	rootCmd.PersistentFlags().StringVar(&lexiconFile, "lexicon", "", "YAML lexicon file (default: built-in word lists)")
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, path, err := config.Resolve(cfgFile)
	if err != nil {
		return wrapError("failed to load config", err)
	}
	appConfig = cfg

	level := cfg.General.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if verbose {
		level = "debug"
	}
	format := cfg.General.LogFormat
	if logFormat != "" {
		format = logFormat
	}

	logging.Configure(logging.LoggerConfig{
		ServiceName: cfg.General.Name,
		Level:       level,
		Format:      format,
		Output:      cmd.ErrOrStderr(),
	})

	if path == "" {
		logging.New("cli").Debug("No config file found, using defaults")
	} else {
		logging.New("cli").Debug("Configuration loaded", "path", path)
	}
	return nil
}

func wrapError(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// loadLexicon returns the lexicon named by --lexicon or the config, or the
// built-in one
func loadLexicon() (*grammar.Lexicon, error) {
	path := lexiconFile
	if path == "" {
		path = appConfig.Grammar.LexiconFile
	}
	if path == "" {
		return grammar.DefaultLexicon(), nil
	}

	lex, err := grammar.LoadLexicon(path)
	if err != nil {
		return nil, wrapError("failed to load lexicon", err)
	}
	return lex, nil
}

func newParser() (*grammar.Parser, error) {
	lex, err := loadLexicon()
	if err != nil {
		return nil, err
	}
	return grammar.New(grammar.Options{Lexicon: lex}), nil
}

func openStore() (*store.SQLiteStore, error) {
	st, err := store.NewSQLiteStore(store.Config{Path: appConfig.Store.Path})
	if err != nil {
		return nil, wrapError("failed to open result store", err)
	}
	return st, nil
}
