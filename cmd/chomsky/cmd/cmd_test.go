package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msto63/chomsky/internal/grammar"
)

type result struct {
	stdout string
	stderr string
	err    error
}

// execute runs the command tree in-process with a temp config and store
func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("CHOMSKY_CONFIG", "")
	cfgPath := filepath.Join(dir, "config.toml")
	cfg := "[general]\nlog_level = \"error\"\n\n[store]\npath = \"" + filepath.ToSlash(filepath.Join(dir, "chomsky.db")) + "\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	return executeWithConfig(t, cfgPath, stdin, args...)
}

func executeWithConfig(t *testing.T, cfgPath, stdin string, args ...string) result {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))

	err := rootCmd.Execute()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func TestCheck_Stdin(t *testing.T) {
	res := execute(t, "# demo\n\nthe dog loves a cat\ndog loves a cat\n", "check", "--color", "never")
	require.NoError(t, res.err)

	sep := strings.Repeat("-", 59)
	want := strings.Join([]string{
		"Comment:  demo",
		"The sentence 'the dog loves a cat' follows the BNF grammar.",
		sep,
		"SYNTAX ERROR: 'ARTICLE' was expected but 'dog' was found.",
		"FAIL: The sentence 'dog loves a cat' does not follow the BNF grammar.",
		sep,
		"Checked 2 sentences: 1 passed, 1 failed.",
	}, "\n") + "\n"
	assert.Equal(t, want, res.stdout)
}

func TestCheck_Files(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("the dog loves a cat\n"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("a furry cat chases the dog\n"), 0o600))

	res := execute(t, "", "check", "--color", "never", "-w", "2", "--tree", a, b)
	require.NoError(t, res.err)
	assert.Equal(t, 2, strings.Count(res.stdout, "digraph ParseTree {"))
	assert.Contains(t, res.stdout, "Checked 2 sentences: 2 passed, 0 failed.")
}

func TestCheck_Strict(t *testing.T) {
	res := execute(t, "the dog loves a cat\n", "check", "--strict", "--color", "never")
	assert.NoError(t, res.err)

	res = execute(t, "the dog\n", "check", "--strict", "--color", "never")
	assert.ErrorIs(t, res.err, errRejected)
	assert.Contains(t, res.stdout, "FAIL: The sentence 'the dog' does not follow the BNF grammar.")
}

func TestCheck_InvalidFlags(t *testing.T) {
	res := execute(t, "", "check", "--color", "sometimes")
	assert.ErrorContains(t, res.err, "invalid color mode")

	res = execute(t, "", "check", "--workers", "0")
	assert.ErrorContains(t, res.err, "invalid worker count")

	res = execute(t, "", "check", filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorContains(t, res.err, "failed to read input")
}

func TestCheck_CustomLexicon(t *testing.T) {
	lexicon := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(lexicon, []byte(
		"article: [the]\nnoun: [fox, hen]\nverb: [chases]\nadjective: [quick]\n"), 0o600))

	res := execute(t, "the quick fox chases the hen\nthe dog loves a cat\n",
		"check", "--color", "never", "--lexicon", lexicon)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "The sentence 'the quick fox chases the hen' follows the BNF grammar.")
	assert.Contains(t, res.stdout, "SYNTAX ERROR: 'NOUN' was expected but 'dog' was found.")
}

func TestTree(t *testing.T) {
	res := execute(t, "", "tree", "the dog loves a cat")
	require.NoError(t, res.err)
	assert.True(t, strings.HasPrefix(res.stdout, "digraph ParseTree {\n"))
	assert.True(t, strings.HasSuffix(res.stdout, "}\n"))

	res = execute(t, "", "tree", "the", "dog")
	assert.ErrorIs(t, res.err, errRejected)
	assert.True(t, strings.HasPrefix(res.stdout, "digraph ParseTree {\n"))
	assert.Contains(t, res.stdout, `"SYNTAX ERROR: 'VERB' was expected but '$$' was found."`)
	assert.Equal(t, "SYNTAX ERROR: 'VERB' was expected but '$$' was found.\n", res.stderr)
}

func TestLexicon(t *testing.T) {
	res := execute(t, "", "lexicon")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "ARTICLE:   a, the\n")
	assert.Contains(t, res.stdout, "17 words")

	res = execute(t, "", "lexicon", "--export")
	require.NoError(t, res.err)
	lex, err := grammar.ParseLexicon([]byte(res.stdout))
	require.NoError(t, err)
	assert.Equal(t, grammar.DefaultLexicon().Words(grammar.CategoryVerb), lex.Words(grammar.CategoryVerb))
}

func TestHistory(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	cfgPath := filepath.Join(dir, "config.toml")
	cfg := "[general]\nlog_level = \"error\"\n\n[store]\npath = \"" + filepath.ToSlash(filepath.Join(dir, "chomsky.db")) + "\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	res := executeWithConfig(t, cfgPath, "", "history")
	require.NoError(t, res.err)
	assert.Equal(t, "No recorded runs.\n", res.stdout)

	res = executeWithConfig(t, cfgPath, "the dog loves a cat\nthe cat\n", "check", "--record", "--color", "never")
	require.NoError(t, res.err)
	id := regexp.MustCompile(`Recorded run ([0-9a-f-]{36})`).FindStringSubmatch(res.stderr)
	require.Len(t, id, 2, res.stderr)

	res = executeWithConfig(t, cfgPath, "", "history")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, id[1])

	res = executeWithConfig(t, cfgPath, "", "history", id[1])
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "   1  PASS  the dog loves a cat")
	assert.Contains(t, res.stdout, "   2  FAIL  the cat  (expected VERB, found '$$')")
	assert.Contains(t, res.stdout, "2 sentences: 1 passed, 1 failed")

	res = executeWithConfig(t, cfgPath, "", "history", "--stats")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Results:  2")

	res = executeWithConfig(t, cfgPath, "", "history", "no-such-run")
	assert.ErrorContains(t, res.err, "failed to load run")
}

func TestConfigErrors(t *testing.T) {
	res := executeWithConfig(t, filepath.Join(t.TempDir(), "missing.toml"), "", "version")
	assert.ErrorContains(t, res.err, "failed to load config")
}

func TestVersion(t *testing.T) {
	res := execute(t, "", "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "chomsky v1.0.0")

	res = execute(t, "", "version", "--json")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `"api": "v1"`)
}
