// Package repl implements an interactive browser of compiled resources.
//
// Lines are evaluated as expressions against the resource environment
// (see package eval). Lines starting with a colon are commands:
//
//	:list [pattern]  list resource names, fuzzy-filtered by pattern
//	:reload          recompile the resource directories
//	:edit [file]     open a resource file in $EDITOR, then reload
//	:clear           clear the screen
//	:help            print usage
//	:quit            exit
//
// Completions for the word under the cursor appear as you type. Tab and
// Shift-Tab cycle through them; Up and Down walk the history, which is kept
// in the user cache directory.
package repl

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/resgen/compile"
	"github.com/ardnew/resgen/eval"
	"github.com/ardnew/resgen/log"
)

// Loader compiles the resources browsed by the REPL.
type Loader func(ctx context.Context) (*compile.Result, error)

const (
	prompt       = "➜ "
	defaultWidth = 80
)

const usage = `Expressions are evaluated against the compiled resources:

  String.Ui.TITLE          nested namespace of a kind
  R.UI_TITLE               flat namespace (RTests for test resources)
  greeting("Alice", 5)     templates are functions
  len(Array.SIZES) > 2     expr-lang operators and builtins

Commands:

  :list [pattern]  list resource names
  :reload          recompile resources
  :edit [file]     edit a resource file, then reload
  :clear           clear the screen
  :help            print this message
  :quit            exit (also Ctrl+D, or Ctrl+C on an empty line)`

var (
	promptStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// reloadMsg carries the outcome of a recompilation.
type reloadMsg struct {
	res *compile.Result
	err error
}

type model struct {
	ctx    context.Context
	load   Loader
	logger log.Logger

	res   *compile.Result
	env   *eval.Env
	names []string

	input   textinput.Model
	history *History
	histIdx int

	matches   fuzzy.Matches
	wordStart int
	wordEnd   int
	selected  int
	tabActive bool
	width     int
	quitting  bool
}

// Run loads the resources and starts the REPL on the terminal.
func Run(ctx context.Context, load Loader, cacheDir string, logger log.Logger) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer func(err *error) { cancel(*err) }(&err)

	res, err := load(ctx)
	if err != nil {
		return err
	}

	history := NewHistory(filepath.Join(cacheDir, baseHistory))
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	logger.TraceContext(ctx, "repl start",
		slog.String("cache_dir", cacheDir),
		slog.Int("resources", res.Len()),
		slog.Int("history", history.Len()),
	)

	_, err = tea.NewProgram(newModel(ctx, load, res, history, logger), tea.WithContext(ctx)).Run()

	return err
}

func newModel(ctx context.Context, load Loader, res *compile.Result, history *History, logger log.Logger) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(prompt)
	ti.TextStyle = inputStyle
	ti.CharLimit = 1024
	ti.Width = defaultWidth
	ti.Focus()

	m := model{
		ctx:     ctx,
		load:    load,
		logger:  logger,
		input:   ti,
		history: history,
		histIdx: history.Len(),
		width:   defaultWidth,
	}

	m.setResult(res)

	return m
}

func (m *model) setResult(res *compile.Result) {
	m.res = res
	m.env = eval.New(res, eval.WithLogger(m.logger))
	m.names = m.env.Names()
}

func (m model) Init() tea.Cmd { return textinput.Blink }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.key(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-lipgloss.Width(prompt)-2, 10)

		return m, nil

	case reloadMsg:
		if msg.err != nil {
			return m, tea.Println(errorStyle.Render("reload failed: " + msg.err.Error()))
		}

		m.setResult(msg.res)

		return m, tea.Println(resultStyle.Render(
			fmt.Sprintf("reloaded %d resources from %d files", msg.res.Len(), len(msg.res.Files)),
		))

	case editDoneMsg:
		if msg.err != nil {
			return m, tea.Println(errorStyle.Render("editor failed: " + msg.err.Error()))
		}

		return m, m.reload()
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var hint string

	input := m.input.Value()

	if c, ok := callAt(input, m.input.Position()); ok && !strings.HasPrefix(input, ":") {
		if ft, found := m.env.Funcs()[c.name]; found {
			hint = renderSignature(c.name, ft, c.arg)
		}
	}

	switch {
	case hint != "":
	case m.histIdx < m.history.Len():
		hint = hintStyle.Render(fmt.Sprintf("history %d/%d", m.histIdx+1, m.history.Len()))
	case strings.TrimSpace(input) == "":
		hint = hintStyle.Render("Type an expression, or :help")
	default:
		hint = renderMatches(m.matches, m.selected, m.tabActive, m.width)
	}

	return m.input.View() + "\n" + hint + "\n"
}

func (m model) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.setInput("")

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if m.tabActive {
			m.tabActive = false
			m.refresh()

			return m, nil
		}

		return m.execute()

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyEsc:
		m.tabActive = false
		m.matches = nil

		return m, nil

	case tea.KeyUp:
		return m.walk(-1), nil

	case tea.KeyDown:
		return m.walk(1), nil
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)
	m.tabActive = false
	m.histIdx = m.history.Len()
	m.refresh()

	return m, cmd
}

func (m *model) setInput(s string) {
	m.input.SetValue(s)
	m.input.CursorEnd()
	m.tabActive = false
	m.refresh()
}

func (m *model) refresh() {
	m.matches, m.wordStart, m.wordEnd = complete(m.names, m.input.Value(), m.input.Position())
	m.selected = 0
}

// cycle replaces the word under the cursor with the next completion.
func (m model) cycle(step int) model {
	if len(m.matches) == 0 {
		return m
	}

	if m.tabActive {
		m.selected = (m.selected + step + len(m.matches)) % len(m.matches)
	} else {
		m.tabActive = true
		if step < 0 {
			m.selected = len(m.matches) - 1
		}
	}

	input := m.input.Value()
	word := m.matches[m.selected].Str
	m.input.SetValue(input[:m.wordStart] + word + input[m.wordEnd:])
	m.input.SetCursor(m.wordStart + len(word))
	m.wordEnd = m.wordStart + len(word)

	return m
}

// walk moves through the history by step entries.
func (m model) walk(step int) model {
	i := m.histIdx + step
	if i < 0 || i > m.history.Len() {
		return m
	}

	m.histIdx = i

	if e, err := m.history.Entry(i); err == nil {
		line := e.Line
		if e.Command && !strings.HasPrefix(line, ":") {
			line = ":" + line
		}

		m.input.SetValue(line)
	} else {
		m.input.SetValue("")
	}

	m.input.CursorEnd()
	m.matches = nil
	m.tabActive = false

	return m
}

func (m model) execute() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())

	m.setInput("")
	m.histIdx = m.history.Len()

	if line == "" {
		return m, nil
	}

	echo := tea.Println(promptStyle.Render(prompt) + inputStyle.Render(line))

	if cmdLine, ok := strings.CutPrefix(line, ":"); ok {
		m.remember(Entry{Line: line, Command: true})

		mm, cmd := m.command(cmdLine)

		return mm, tea.Sequence(echo, cmd)
	}

	m.remember(Entry{Line: line})
	m.histIdx = m.history.Len()

	out, err := m.env.Eval(m.ctx, line)
	if err != nil {
		return m, tea.Sequence(echo, tea.Println(errorStyle.Render(err.Error())))
	}

	return m, tea.Sequence(echo, tea.Println(resultStyle.Render(eval.Format(out))))
}

func (m *model) remember(e Entry) {
	if err := m.history.Add(e); err != nil {
		m.logger.DebugContext(m.ctx, "could not save history", slog.Any("error", err))
	}

	m.histIdx = m.history.Len()
}

func (m model) command(line string) (tea.Model, tea.Cmd) {
	name, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Quit

	case "h", "help":
		return m, tea.Println(hintStyle.Render(usage))

	case "clear":
		return m, tea.ClearScreen

	case "l", "list":
		return m, tea.Println(m.list(arg))

	case "r", "reload":
		return m, m.reload()

	case "e", "edit":
		path := arg
		if path == "" {
			if len(m.res.Files) == 0 {
				return m, tea.Println(errorStyle.Render(ErrNoFile.Error()))
			}

			path = m.res.Files[0].Path
		}

		return m, edit(path)
	}

	return m, tea.Println(errorStyle.Render("unknown command :" + name + " (try :help)"))
}

func (m model) list(pattern string) string {
	names := m.names

	if pattern != "" {
		matches := fuzzy.Find(pattern, names)

		names = make([]string, len(matches))
		for i, match := range matches {
			names[i] = match.Str
		}
	}

	if len(names) == 0 {
		return hintStyle.Render("no matches")
	}

	funcs := m.env.Funcs()

	var b strings.Builder

	for i, n := range names {
		if i > 0 {
			b.WriteByte('\n')
		}

		if ft, ok := funcs[n]; ok {
			b.WriteString(suggestionStyle.Render(n) + " " + hintStyle.Render(strings.TrimPrefix(ft, "func")))

			continue
		}

		b.WriteString(n)
	}

	b.WriteString("\n" + hintStyle.Render(strconv.Itoa(len(names))+" names"))

	return b.String()
}

func (m model) reload() tea.Cmd {
	ctx, load := m.ctx, m.load

	return func() tea.Msg {
		res, err := load(ctx)

		return reloadMsg{res: res, err: err}
	}
}
