// Package tui is the interactive sentence checker.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/chomsky/internal/checker"
)

const checkTimeout = 10 * time.Second

// CheckFunc checks one sentence, locally or against a remote service
type CheckFunc func(ctx context.Context, sentence string) (checker.Verdict, error)

// LocalCheck adapts an in-process checker
func LocalCheck(c *checker.Checker) CheckFunc {
	return func(_ context.Context, sentence string) (checker.Verdict, error) {
		v := c.Check(sentence)
		return v, v.Err
	}
}

// Entry is one checked sentence of the session
type Entry struct {
	Verdict checker.Verdict
	Err     error
}

type checkedMsg struct {
	entry Entry
}

// Model is the TUI model
type Model struct {
	width   int
	height  int
	ready   bool
	loading bool

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	check    CheckFunc
	target   string
	history  []Entry
	showTree bool
	passed   int
	failed   int
}

// NewModel creates the model. target names where sentences are checked
// and is shown in the status bar.
func NewModel(check CheckFunc, target string) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a sentence, e.g. the dog loves a cat"
	ti.Prompt = "> "
	ti.CharLimit = 1024
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return Model{
		input:   ti,
		spinner: sp,
		check:   check,
		target:  target,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab":
			m.showTree = !m.showTree
			m.updateContent()
			return m, nil

		case "ctrl+l":
			m.history = nil
			m.passed, m.failed = 0, 0
			m.updateContent()
			return m, nil

		case "enter":
			sentence := strings.TrimSpace(m.input.Value())
			if m.loading || sentence == "" {
				return m, nil
			}
			m.input.Reset()
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.runCheck(sentence))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		height := msg.Height - 8
		if height < 1 {
			height = 1
		}

		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.input.Width = msg.Width - 8
		m.updateContent()

	case checkedMsg:
		m.loading = false
		m.history = append(m.history, msg.entry)
		if msg.entry.Err == nil {
			if msg.entry.Verdict.Accepted {
				m.passed++
			} else {
				m.failed++
			}
		}
		m.updateContent()
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) runCheck(sentence string) tea.Cmd {
	check := m.check
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()

		v, err := check(ctx, sentence)
		if v.Sentence == "" {
			v.Sentence = sentence
		}
		return checkedMsg{entry: Entry{Verdict: v, Err: err}}
	}
}

// History returns the verdicts of the session in order
func (m Model) History() []Entry {
	return m.history
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var s strings.Builder
	s.WriteString(m.renderHeader())
	s.WriteString("\n")
	s.WriteString(m.viewport.View())
	s.WriteString("\n")
	if m.loading {
		s.WriteString(m.spinner.View())
		s.WriteString(" Checking...\n")
	}
	s.WriteString(FocusedInputStyle.Render(m.input.View()))
	s.WriteString("\n")
	s.WriteString(m.renderFooter())
	return s.String()
}

func (m *Model) renderHeader() string {
	title := TitleStyle.Render("chomsky")
	grammar := SubtitleStyle.Render("S ::= NP V NP EOS   NP ::= A AN   AN ::= ADJ N | N")
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", grammar)
}

func (m *Model) renderFooter() string {
	tree := "off"
	if m.showTree {
		tree = "on"
	}
	status := StatusBarStyle.Render(fmt.Sprintf("%s | %d passed, %d failed | tree %s",
		m.target, m.passed, m.failed, tree))
	help := RenderHelp("enter: check  tab: toggle tree  ctrl+l: clear  esc: quit")
	return lipgloss.JoinVertical(lipgloss.Left, status, help)
}

func (m *Model) updateContent() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderHistory())
}

func (m *Model) renderHistory() string {
	if len(m.history) == 0 {
		return SubtitleStyle.Render("No sentences checked yet.")
	}

	var s strings.Builder
	for _, e := range m.history {
		s.WriteString(SentenceStyle.Render(e.Verdict.Sentence))
		s.WriteString("\n")

		if e.Err != nil {
			s.WriteString(RenderError(e.Err.Error()))
			s.WriteString("\n\n")
			continue
		}

		if m.showTree && e.Verdict.Tree != "" {
			for _, line := range strings.Split(strings.TrimRight(e.Verdict.Tree, "\n"), "\n") {
				s.WriteString(TreeStyle.Render(line))
				s.WriteString("\n")
			}
		}

		if e.Verdict.Accepted {
			s.WriteString(AcceptedStyle.Render(e.Verdict.Message))
			s.WriteString("\n")
		} else {
			s.WriteString(DiagnosticStyle.Render(e.Verdict.Message))
			s.WriteString("\n")
			s.WriteString(RejectedStyle.Render(checker.FailText(e.Verdict.Sentence)))
			s.WriteString("\n")
		}
		s.WriteString(HelpStyle.Render(checker.Separator))
		s.WriteString("\n")
	}
	return s.String()
}
