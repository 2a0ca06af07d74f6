package checker

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ColorMode selects styled or plain verdict output
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Styles colors the verdict lines. The text content is the same in every mode.
type Styles struct {
	Pass      lipgloss.Style
	Fail      lipgloss.Style
	Error     lipgloss.Style
	Comment   lipgloss.Style
	Tree      lipgloss.Style
	Separator lipgloss.Style
	Summary   lipgloss.Style
}

// NewStyles creates the verdict styles for a renderer
func NewStyles(r *lipgloss.Renderer) Styles {
	// Tabs in sentences are kept as typed
	base := r.NewStyle().TabWidth(lipgloss.NoTabConversion)

	return Styles{
		Pass:      base.Foreground(lipgloss.Color("#10B981")),
		Fail:      base.Foreground(lipgloss.Color("#EF4444")).Bold(true),
		Error:     base.Foreground(lipgloss.Color("#EF4444")),
		Comment:   base.Foreground(lipgloss.Color("#6B7280")).Italic(true),
		Tree:      base.Foreground(lipgloss.Color("#93C5FD")),
		Separator: base.Foreground(lipgloss.Color("#374151")),
		Summary:   base.Foreground(lipgloss.Color("#7C3AED")).Bold(true),
	}
}

// Reporter writes results as verdict text
type Reporter struct {
	w        io.Writer
	emitTree bool
	styles   Styles
}

// NewReporter creates a reporter. With ColorAuto the output is styled only
// when w is a color-capable terminal.
func NewReporter(w io.Writer, emitTree bool, mode ColorMode) *Reporter {
	renderer := lipgloss.NewRenderer(w)
	switch mode {
	case ColorAlways:
		renderer.SetColorProfile(termenv.ANSI256)
	case ColorNever:
		renderer.SetColorProfile(termenv.Ascii)
	}

	return &Reporter{w: w, emitTree: emitTree, styles: NewStyles(renderer)}
}

// Report writes one result: a comment echo, or the optional tree document,
// the verdict lines and the separator
func (r *Reporter) Report(res Result) error {
	if res.IsComment() {
		return r.println(r.styles.Comment, CommentText(res.Item.Text))
	}

	v := res.Verdict
	if r.emitTree && v.Tree != "" {
		// Line by line: a multi-line Render pads lines to equal width
		for _, line := range strings.Split(strings.TrimSuffix(v.Tree, "\n"), "\n") {
			if err := r.println(r.styles.Tree, line); err != nil {
				return err
			}
		}
	}

	for i, line := range v.Lines() {
		style := r.styles.Pass
		switch {
		case v.Accepted:
		case i == 0 && v.Err != nil:
			style = r.styles.Error
		default:
			style = r.styles.Fail
		}
		if err := r.println(style, line); err != nil {
			return err
		}
	}
	return r.println(r.styles.Separator, Separator)
}

// Summary writes the batch summary line
func (r *Reporter) Summary(s Summary) error {
	return r.println(r.styles.Summary, s.String())
}

func (r *Reporter) println(style lipgloss.Style, text string) error {
	_, err := fmt.Fprintln(r.w, style.Render(text))
	return err
}
