package main

import (
	"fmt"
	"slices"
	"strings"

	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/midbel/cli"
	"github.com/midbel/hq/dom"
	"github.com/midbel/hq/hquery"
)

var replCmd = cli.Command{
	Name:    "repl",
	Summary: "query an html document interactively",
	Handler: &ReplCmd{},
}

type ReplCmd struct {
	Config
}

func (r ReplCmd) Run(args []string) error {
	set := cli.NewFlagSet("repl")
	set.BoolVar(&r.Preserve, "preserve", false, "preserve whitespace in string values")
	set.BoolVar(&r.Ugly, "ugly", false, "print nodes as they appear in the document")
	if err := set.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if set.NArg() == 0 {
		return fmt.Errorf("%w: repl: document file expected", errUsage)
	}
	doc, err := dom.ParseFile(set.Arg(0))
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(newShell(doc, r.Config)).Run()
	return err
}

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	queryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const shellHelp = "enter: run - up/down: history - tab: complete function - :funcs - esc: quit"

type shell struct {
	doc    *dom.Document
	config Config

	input  textinput.Model
	output viewport.Model

	lines   []string
	history []string
	cursor  int
}

func newShell(doc *dom.Document, cfg Config) *shell {
	in := textinput.New()
	in.Prompt = promptStyle.Render("hq> ")
	in.Placeholder = "//title"
	in.Focus()

	return &shell{
		doc:    doc,
		config: cfg,
		input:  in,
		output: viewport.New(viewport.WithWidth(80), viewport.WithHeight(20)),
	}
}

func (s *shell) Init() tea.Cmd {
	return nil
}

func (s *shell) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.output.SetWidth(msg.Width)
		s.output.SetHeight(max(msg.Height-3, 1))
		s.input.SetWidth(msg.Width - 5)
		return s, nil
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return s, tea.Quit
		case "enter":
			s.execute(strings.TrimSpace(s.input.Value()))
			s.input.Reset()
			return s, nil
		case "up":
			s.recall(-1)
			return s, nil
		case "down":
			s.recall(1)
			return s, nil
		case "tab":
			s.complete()
			return s, nil
		}
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *shell) View() tea.View {
	var buf strings.Builder
	buf.WriteString(s.output.View())
	buf.WriteString("\n")
	buf.WriteString(s.input.View())
	buf.WriteString("\n")
	buf.WriteString(helpStyle.Render(shellHelp))
	return tea.NewView(buf.String())
}

func (s *shell) execute(expr string) {
	if expr == "" {
		return
	}
	s.history = append(s.history, expr)
	s.cursor = len(s.history)
	s.lines = append(s.lines, queryStyle.Render("> "+expr))

	if expr == ":funcs" {
		s.lines = append(s.lines, strings.Join(hquery.Functions(), ", "))
		s.refresh()
		return
	}
	q, err := hquery.Compile(expr, s.config.Preserve)
	if err != nil {
		s.lines = append(s.lines, errorStyle.Render("syntax error: "+err.Error()))
		s.refresh()
		return
	}
	res, err := q.Run(s.doc.Root())
	if err != nil {
		s.lines = append(s.lines, errorStyle.Render("query error: "+err.Error()))
		s.refresh()
		return
	}
	for _, item := range hquery.Items(res) {
		s.lines = append(s.lines, formatItem(item, s.config))
	}
	s.refresh()
}

func (s *shell) refresh() {
	s.output.SetContent(strings.Join(s.lines, "\n"))
	s.output.GotoBottom()
}

func (s *shell) recall(dir int) {
	if len(s.history) == 0 {
		return
	}
	s.cursor = min(max(s.cursor+dir, 0), len(s.history))
	if s.cursor == len(s.history) {
		s.input.Reset()
		return
	}
	s.input.SetValue(s.history[s.cursor])
	s.input.CursorEnd()
}

// complete replaces the word under the cursor by the name of the function it
// is the prefix of, when there is only one such function.
func (s *shell) complete() {
	var (
		value = s.input.Value()
		ix    = strings.LastIndexFunc(value, isBoundary)
		word  = value[ix+1:]
	)
	if word == "" {
		return
	}
	names := slices.DeleteFunc(hquery.Functions(), func(n string) bool {
		return !strings.HasPrefix(n, word)
	})
	if len(names) != 1 {
		return
	}
	s.input.SetValue(value[:ix+1] + names[0] + "(")
	s.input.CursorEnd()
}

func isBoundary(r rune) bool {
	return strings.ContainsRune(" ([,/|=<>!+*", r)
}
