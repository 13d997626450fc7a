package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mgomes/classcore/core"
	"github.com/mgomes/classcore/corpus"
)

// sessionTheme styles session lines by what they carry.
type sessionTheme struct {
	prompt   lipgloss.Style
	output   lipgloss.Style
	failure  lipgloss.Style
	dim      lipgloss.Style
	title    lipgloss.Style
	typeName lipgloss.Style
	panel    lipgloss.Style
}

func newSessionTheme() sessionTheme {
	ink := lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	quiet := lipgloss.AdaptiveColor{Light: "#57534E", Dark: "#A8A29E"}
	return sessionTheme{
		prompt:   lipgloss.NewStyle().Foreground(ink).Bold(true),
		output:   lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}),
		failure:  lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}),
		dim:      lipgloss.NewStyle().Foreground(quiet),
		title:    lipgloss.NewStyle().Foreground(ink).Bold(true),
		typeName: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}),
		panel:    lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(quiet).Padding(0, 1),
	}
}

var theme = newSessionTheme()

type historyEntry struct {
	input  string
	output string
	isErr  bool
}

// sessionModel keeps one loaded program and runs entry points against it.
type sessionModel struct {
	textInput   textinput.Model
	engine      *core.Engine
	program     *core.Program
	source      string
	history     []historyEntry
	cmdHistory  []string
	historyIdx  int
	width       int
	height      int
	keys        sessionKeys
	help        help.Model
	showHelp    bool
	showTypes   bool
	quitting    bool
	initialized bool
}

// sessionKeys doubles as the help.KeyMap for the footer.
type sessionKeys struct {
	Previous key.Binding
	Next     key.Binding
	Run      key.Binding
	Complete key.Binding
	Clear    key.Binding
	Types    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func newSessionKeys() sessionKeys {
	return sessionKeys{
		Previous: key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "earlier entry")),
		Next:     key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "later entry")),
		Run:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run Type.method")),
		Complete: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "complete name")),
		Clear:    key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
		Types:    key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "types")),
		Help:     key.NewBinding(key.WithKeys("ctrl+k"), key.WithHelp("ctrl+k", "help")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "ctrl+d"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k sessionKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Run, k.Help, k.Types, k.Quit}
}

func (k sessionKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Run, k.Complete, k.Previous, k.Next},
		{k.Types, k.Clear, k.Help, k.Quit},
	}
}

func newSessionModel(engine *core.Engine) sessionModel {
	ti := textinput.New()
	ti.Placeholder = "Type.method args..."
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60
	ti.PromptStyle = theme.prompt
	ti.Prompt = "classcore> "

	h := help.New()
	h.Styles.ShortKey = theme.typeName
	h.Styles.FullKey = theme.typeName
	h.Styles.ShortDesc = theme.dim
	h.Styles.FullDesc = theme.dim

	return sessionModel{
		textInput:  ti,
		engine:     engine,
		keys:       newSessionKeys(),
		help:       h,
		history:    make([]historyEntry, 0),
		cmdHistory: make([]string, 0),
		historyIdx: -1,
	}
}

func (m sessionModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.EnterAltScreen)
}

func (m sessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 14
		m.help.Width = msg.Width
		m.initialized = true
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Clear):
			m.history = make([]historyEntry, 0)
			return m, nil

		case key.Matches(msg, m.keys.Types):
			m.showTypes = !m.showTypes
			return m, nil

		case key.Matches(msg, m.keys.Help):
			m = m.toggleHelp()
			return m, nil

		case key.Matches(msg, m.keys.Previous):
			if len(m.cmdHistory) > 0 {
				if m.historyIdx == -1 {
					m.historyIdx = len(m.cmdHistory) - 1
				} else if m.historyIdx > 0 {
					m.historyIdx--
				}
				m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, m.keys.Next):
			if m.historyIdx != -1 {
				if m.historyIdx < len(m.cmdHistory)-1 {
					m.historyIdx++
					m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				} else {
					m.historyIdx = -1
					m.textInput.SetValue("")
				}
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, m.keys.Complete):
			m = m.handleAutocomplete()
			return m, nil

		case key.Matches(msg, m.keys.Run):
			input := strings.TrimSpace(m.textInput.Value())
			if input == "" {
				return m, nil
			}
			m.cmdHistory = append(m.cmdHistory, input)

			if strings.HasPrefix(input, ":") {
				var cmd tea.Cmd
				m, cmd = m.handleCommand(input)
				m.textInput.SetValue("")
				m.historyIdx = -1
				return m, cmd
			}

			output, isErr := m.runInput(input)
			m.history = append(m.history, historyEntry{
				input:  input,
				output: output,
				isErr:  isErr,
			})
			m.textInput.SetValue("")
			m.historyIdx = -1
			return m, nil
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m sessionModel) handleCommand(input string) (sessionModel, tea.Cmd) {
	parts := strings.Fields(input)
	cmd := parts[0]

	switch cmd {
	case ":help", ":h":
		m = m.toggleHelp()
	case ":clear", ":c":
		m.history = make([]historyEntry, 0)
	case ":types", ":t":
		m.history = append(m.history, historyEntry{input: input, output: m.describeTypes()})
	case ":methods", ":m":
		if len(parts) != 2 {
			m = m.appendError(input, "usage: :methods Type")
			break
		}
		output, err := m.describeMethods(parts[1])
		if err != nil {
			m = m.appendError(input, err.Error())
			break
		}
		m.history = append(m.history, historyEntry{input: input, output: output})
	case ":example", ":e":
		if len(parts) != 2 {
			m = m.appendError(input, "usage: :example "+strings.Join(corpus.Names(), "|"))
			break
		}
		p, err := corpus.Lookup(parts[1])
		if err != nil {
			m = m.appendError(input, err.Error())
			break
		}
		source, err := p.Source()
		if err != nil {
			m = m.appendError(input, err.Error())
			break
		}
		if err := m.load(source, "example "+p.Name); err != nil {
			m = m.appendError(input, err.Error())
			break
		}
		m.history = append(m.history, historyEntry{input: input, output: fmt.Sprintf("Loaded %s (entry %s)", p.Name, p.Entry)})
	case ":load", ":l":
		if len(parts) != 2 {
			m = m.appendError(input, "usage: :load path")
			break
		}
		source, err := os.ReadFile(parts[1])
		if err != nil {
			m = m.appendError(input, err.Error())
			break
		}
		if err := m.load(source, filepath.Base(parts[1])); err != nil {
			m = m.appendError(input, err.Error())
			break
		}
		m.history = append(m.history, historyEntry{input: input, output: "Loaded " + parts[1]})
	case ":quit", ":q":
		m.quitting = true
		return m, tea.Quit
	default:
		m = m.appendError(input, fmt.Sprintf("Unknown command: %s", cmd))
	}
	return m, nil
}

func (m sessionModel) toggleHelp() sessionModel {
	m.showHelp = !m.showHelp
	m.help.ShowAll = m.showHelp
	return m
}

func (m sessionModel) appendError(input, message string) sessionModel {
	m.history = append(m.history, historyEntry{input: input, output: message, isErr: true})
	return m
}

// load replaces the session's program. A program that fails to load leaves
// the previous one in place.
func (m *sessionModel) load(source []byte, label string) error {
	program, err := m.engine.LoadYAML(source)
	if err != nil {
		return err
	}
	m.program = program
	m.source = label
	return nil
}

func (m sessionModel) runInput(input string) (string, bool) {
	if m.program == nil {
		return "no program loaded; use :example or :load", true
	}
	words := strings.Fields(input)
	args := make([]core.Value, len(words)-1)
	for i, raw := range words[1:] {
		args[i] = parseArgument(raw)
	}

	result, err := m.program.RunEntry(context.Background(), words[0], args, core.RunOptions{})
	lines := make([]string, 0)
	if result != nil {
		lines = append(lines, result.Output...)
	}
	if err != nil {
		lines = append(lines, err.Error())
		return strings.Join(lines, "\n"), true
	}
	if !result.Value.IsNull() {
		lines = append(lines, "= "+result.Value.String())
	}
	if len(lines) == 0 {
		return "(no output)", false
	}
	return strings.Join(lines, "\n"), false
}

func (m sessionModel) describeTypes() string {
	if m.program == nil {
		return "no program loaded"
	}
	var lines []string
	for _, decl := range m.program.Table().Types() {
		line := decl.Kind.String() + " " + decl.Name
		if decl.Extends != "" {
			line += " extends " + decl.Extends
		}
		if len(decl.Implements) > 0 {
			line += " implements " + strings.Join(decl.Implements, ", ")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m sessionModel) describeMethods(typeName string) (string, error) {
	if m.program == nil {
		return "", fmt.Errorf("no program loaded")
	}
	table := m.program.Table()
	decl, err := table.Lookup(typeName)
	if err != nil {
		return "", err
	}
	var lines []string
	for _, ctor := range table.Constructors(typeName) {
		lines = append(lines, ctor.String())
	}
	for _, method := range decl.Methods {
		line := method.String() + " " + method.ReturnType()
		if method.Static {
			line = "static " + line
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return typeName + " declares no methods", nil
	}
	return strings.Join(lines, "\n"), nil
}

// completions lists the Type.method words the loaded program offers.
func (m sessionModel) completions() []string {
	commands := []string{":types", ":methods", ":example", ":load", ":help", ":clear", ":quit"}
	if m.program == nil {
		return commands
	}
	seen := make(map[string]struct{})
	words := make([]string, 0)
	for _, decl := range m.program.Table().Types() {
		if decl.Kind != core.DeclClass {
			continue
		}
		words = append(words, decl.Name)
		for _, method := range decl.Methods {
			word := decl.Name + "." + method.Name
			if _, ok := seen[word]; ok {
				continue
			}
			seen[word] = struct{}{}
			words = append(words, word)
		}
	}
	sort.Strings(words)
	return append(words, commands...)
}

func (m sessionModel) handleAutocomplete() sessionModel {
	input := m.textInput.Value()
	if input == "" {
		return m
	}

	words := strings.Fields(input)
	if len(words) == 0 {
		return m
	}
	lastWord := words[len(words)-1]

	var matches []string
	for _, candidate := range m.completions() {
		if strings.HasPrefix(candidate, lastWord) {
			matches = append(matches, candidate)
		}
	}

	if len(matches) == 1 {
		prefix := strings.TrimSuffix(input, lastWord)
		m.textInput.SetValue(prefix + matches[0])
		m.textInput.CursorEnd()
	} else if len(matches) > 1 {
		m.history = append(m.history, historyEntry{
			output: "Completions: " + strings.Join(matches, ", "),
		})
	}

	return m
}

func (m sessionModel) View() string {
	if !m.initialized {
		return "Loading..."
	}

	if m.quitting {
		return theme.dim.Render("Goodbye!\n")
	}

	var b strings.Builder

	header := theme.title.Render("classcore session")
	loaded := theme.dim.Render("no program")
	if m.program != nil {
		loaded = theme.dim.Render(m.source)
	}
	b.WriteString(header + " " + loaded + "\n")
	b.WriteString(theme.dim.Render(strings.Repeat("─", max(min(m.width-2, 60), 0))) + "\n\n")

	reservedLines := 8
	if m.showHelp {
		// command panel plus the full key help
		reservedLines += 13
	}
	if m.showTypes && m.program != nil {
		reservedLines += len(m.program.Table().Types()) + 3
	}
	availableHeight := max(m.height-reservedLines, 1)

	historyStart := 0
	if len(m.history) > availableHeight {
		historyStart = len(m.history) - availableHeight
	}

	for i := historyStart; i < len(m.history); i++ {
		entry := m.history[i]
		if entry.input != "" {
			b.WriteString(theme.dim.Render("  › ") + entry.input + "\n")
		}
		for _, line := range strings.Split(entry.output, "\n") {
			if entry.isErr {
				b.WriteString("  " + theme.failure.Render("✗ "+line) + "\n")
			} else {
				b.WriteString("  " + theme.output.Render("→ "+line) + "\n")
			}
		}
		b.WriteString("\n")
	}

	if m.showTypes {
		b.WriteString(renderTypesPanel(m.program))
		b.WriteString("\n")
	}

	if m.showHelp {
		b.WriteString(renderCommandsPanel())
		b.WriteString("\n")
	}

	b.WriteString(m.textInput.View() + "\n\n")

	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func renderTypesPanel(program *core.Program) string {
	if program == nil {
		return theme.panel.Render(theme.dim.Render("No program loaded"))
	}

	var lines []string
	lines = append(lines, theme.title.Render("Types"))
	for _, decl := range program.Table().Types() {
		lines = append(lines, fmt.Sprintf("  %s %s (%d methods)", decl.Kind, theme.typeName.Render(decl.Name), len(decl.Methods)))
	}
	return theme.panel.Render(strings.Join(lines, "\n"))
}

func renderCommandsPanel() string {
	commands := []struct {
		key  string
		desc string
	}{
		{":types", "List declared types"},
		{":methods", "List a type's methods"},
		{":example", "Load an embedded program"},
		{":load", "Load a program file"},
		{":help", "Toggle this help"},
		{":clear", "Clear history"},
		{":quit", "Exit session"},
	}

	var lines []string
	lines = append(lines, theme.title.Render("Commands"))
	for _, h := range commands {
		line := fmt.Sprintf("  %s  %s",
			theme.typeName.Render(fmt.Sprintf("%-9s", h.key)),
			theme.dim.Render(h.desc))
		lines = append(lines, line)
	}

	return theme.panel.Render(strings.Join(lines, "\n"))
}

func sessionCommand(args []string) error {
	fs := flag.NewFlagSet("session", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	example := fs.String("example", "", "preload an embedded reference program")
	if err := fs.Parse(args); err != nil {
		return err
	}

	engine, err := core.NewEngine(core.Config{})
	if err != nil {
		return err
	}
	model := newSessionModel(engine)
	if *example != "" || len(fs.Args()) > 0 {
		source, _, err := loadSource(*example, fs.Args())
		if err != nil {
			return err
		}
		label := *example
		if label == "" {
			label = filepath.Base(fs.Arg(0))
		} else {
			label = "example " + label
		}
		if err := model.load(source, label); err != nil {
			return fmt.Errorf("load failed: %w", err)
		}
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
