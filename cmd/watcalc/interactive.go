package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wat-calc/config"
	"github.com/wippyai/wat-calc/engine"
	"github.com/wippyai/wat-calc/wat"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	hexStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD866"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const maxEntries = 8

type interactiveModel struct {
	err      error
	cfg      *config.Config
	asm      *wat.Assembler
	eng      *engine.Engine
	entries  []entry
	input    textinput.Model
	showHelp bool
	busy     bool
}

// entry is one evaluated line.
type entry struct {
	err    error
	src    string
	hex    string
	sig    string
	value  string
	warn   string
	nbytes int
}

type engineMsg struct {
	err error
	eng *engine.Engine
}

type evalMsg struct {
	entry entry
}

func newInteractiveModel(cfg *config.Config) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "(i32.const 2) (i32.const 3) (i32.add)"
	ti.Prompt = "> "
	ti.Width = 72
	ti.Focus()

	return &interactiveModel{
		cfg:   cfg,
		asm:   wat.NewWithOptions(cfg.AssemblerOptions()),
		input: ti,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.startEngine)
}

func (m *interactiveModel) startEngine() tea.Msg {
	eng, err := engine.NewWithConfig(context.Background(), m.cfg.EngineConfig())
	return engineMsg{eng: eng, err: err}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if m.eng != nil {
				m.eng.Close(context.Background())
			}
			return m, tea.Quit

		case "tab":
			m.showHelp = !m.showHelp
			return m, nil

		case "enter":
			src := strings.TrimSpace(m.input.Value())
			if src == "" || m.eng == nil || m.busy {
				return m, nil
			}
			m.busy = true
			m.input.SetValue("")
			return m, m.evaluate(src)
		}

	case engineMsg:
		m.eng = msg.eng
		m.err = msg.err
		return m, nil

	case evalMsg:
		m.busy = false
		m.entries = append(m.entries, msg.entry)
		if len(m.entries) > maxEntries {
			m.entries = m.entries[len(m.entries)-maxEntries:]
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) evaluate(src string) tea.Cmd {
	asm, eng := m.asm, m.eng
	return func() tea.Msg {
		e := entry{src: src}

		res, err := asm.Assemble([]byte(src))
		if res == nil {
			e.err = err
			return evalMsg{entry: e}
		}
		e.nbytes = len(res.Binary)
		e.hex = hexString(res.Binary)
		switch {
		case err != nil:
			e.warn = err.Error()
		case res.Truncated:
			e.warn = fmt.Sprintf("stopped at offset %d: %v%s", res.StopOffset, res.StopReason, quoted(res.Mnemonic))
		}

		v, err := eng.Eval(context.Background(), res.Binary)
		if err != nil {
			e.err = err
			return evalMsg{entry: e}
		}
		e.sig = signature(v.WIT())
		e.value = v.String()
		return evalMsg{entry: e}
	}
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress esc to quit.", m.err))
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("watcalc"))
	b.WriteString(" assemble and evaluate calc\n\n")

	for _, e := range m.entries {
		b.WriteString(helpStyle.Render("> "))
		b.WriteString(e.src)
		b.WriteString("\n")
		if e.hex != "" {
			b.WriteString(hexStyle.Render(fmt.Sprintf("  %d bytes: %s", e.nbytes, e.hex)))
			b.WriteString("\n")
		}
		if e.warn != "" {
			b.WriteString(warnStyle.Render("  warning: " + e.warn))
			b.WriteString("\n")
		}
		if e.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("  Error: %v", e.err)))
		} else {
			b.WriteString("  " + m.formatSignature(e.sig) + " = " + resultStyle.Render(e.value))
		}
		b.WriteString("\n\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if m.showHelp {
		b.WriteString(typeStyle.Render(strings.Join(wat.Mnemonics(), " ")))
		b.WriteString("\n\n")
	}
	if m.eng == nil {
		b.WriteString(helpStyle.Render("starting engine..."))
	} else {
		b.WriteString(helpStyle.Render("enter evaluate • tab instructions • esc quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatSignature(sig string) string {
	name, rest, ok := strings.Cut(sig, ":")
	if !ok {
		return sig
	}
	return funcStyle.Render(name) + ":" + typeStyle.Render(rest)
}

// signature renders the calc export as a WIT function type.
func signature(result wit.Type) string {
	return wat.ExportName + ": func() -> " + witTypeStr(result)
}

func witTypeStr(t wit.Type) string {
	switch t.(type) {
	case wit.S32:
		return "s32"
	case wit.U32:
		return "u32"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	default:
		return fmt.Sprintf("%T", t)
	}
}

func runInteractive(cfg *config.Config) error {
	p := tea.NewProgram(newInteractiveModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
