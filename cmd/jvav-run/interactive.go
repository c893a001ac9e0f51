package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/jvav-runtime/prompt"
	"github.com/wippyai/jvav-runtime/runtime"
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

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	questionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFD866"))

	outputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// syncBuffer collects guest output written from the call goroutine while the
// UI goroutine renders it.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

type modelState int

const (
	stateLoading modelState = iota
	stateSelectFunc
	stateInputArgs
	stateRunning
	stateAsk
	stateShowResult
)

type interactiveModel struct {
	err      error
	rt       *runtime.Runtime
	instance *runtime.Instance
	prompter *prompt.Channel
	output   *syncBuffer
	pending  *prompt.Request
	filename string
	result   string
	funcs    []runtime.Export
	inputs   []textinput.Model
	answer   textinput.Model
	cfg      runtime.Config
	selected int
	focusIdx int
	state    modelState
}

func newInteractiveModel(cfg runtime.Config, filename string) *interactiveModel {
	return &interactiveModel{
		cfg:      cfg,
		filename: filename,
		prompter: prompt.NewChannel(),
		output:   &syncBuffer{},
		state:    stateLoading,
	}
}

type loadedMsg struct {
	err  error
	rt   *runtime.Runtime
	inst *runtime.Instance
}

type callResultMsg struct {
	err    error
	result string
}

type askMsg struct {
	req prompt.Request
}

type tickMsg struct{}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(m.load, m.waitForAsk)
}

func (m *interactiveModel) load() tea.Msg {
	ctx := context.Background()

	rt, err := runtime.New(ctx, m.cfg)
	if err != nil {
		return loadedMsg{err: err}
	}
	inst, err := rt.Load(ctx, m.filename,
		runtime.WithPrompter(m.prompter),
		runtime.WithOutput(m.output))
	if err != nil {
		_ = rt.Close(ctx)
		return loadedMsg{err: err}
	}
	return loadedMsg{rt: rt, inst: inst}
}

func (m *interactiveModel) waitForAsk() tea.Msg {
	return askMsg{req: <-m.prompter.Requests()}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *interactiveModel) close() {
	ctx := context.Background()
	if m.pending != nil {
		m.pending.Cancel()
		m.pending = nil
	}
	if m.rt != nil {
		_ = m.rt.Close(ctx)
		m.rt = nil
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.close()
			return m, tea.Quit
		}
		if m.state == stateAsk {
			return m.updateAsk(msg)
		}

		switch msg.String() {
		case "q":
			if m.state != stateInputArgs {
				m.close()
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.funcs)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				if len(m.funcs) == 0 {
					break
				}
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.startCall(nil)
				}
				m.state = stateInputArgs
				return m, nil

			case stateInputArgs:
				raw := make([]string, len(m.inputs))
				for i, in := range m.inputs {
					raw[i] = in.Value()
				}
				args, err := m.funcs[m.selected].ParseArgs(raw)
				if err != nil {
					m.err = err
					m.state = stateShowResult
					return m, nil
				}
				return m, m.startCall(args)

			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectFunc
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.rt = msg.rt
		m.instance = msg.inst
		if e, ok := msg.inst.Entry(); ok {
			m.funcs = append(m.funcs, e)
		}
		m.funcs = append(m.funcs, msg.inst.Exports()...)
		m.state = stateSelectFunc

	case askMsg:
		req := msg.req
		m.pending = &req
		m.answer = textinput.New()
		m.answer.Prompt = "> "
		m.answer.Width = 40
		m.answer.Focus()
		m.state = stateAsk
		return m, textinput.Blink

	case tickMsg:
		if m.state == stateRunning || m.state == stateAsk {
			return m, tick()
		}
		return m, nil

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) updateAsk(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.pending.Answer(m.answer.Value())
	case "esc":
		m.pending.Cancel()
	default:
		var cmd tea.Cmd
		m.answer, cmd = m.answer.Update(msg)
		return m, cmd
	}
	m.pending = nil
	m.state = stateRunning
	return m, m.waitForAsk
}

func (m *interactiveModel) prepareInputs() {
	f := m.funcs[m.selected]
	m.inputs = make([]textinput.Model, len(f.Params))
	for i, p := range f.Params {
		ti := textinput.New()
		ti.Placeholder = api.ValueTypeName(p)
		ti.Prompt = fmt.Sprintf("arg%d: ", i)
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) startCall(args []uint64) tea.Cmd {
	inst := m.instance
	name := m.funcs[m.selected].Name
	m.output.Reset()
	m.state = stateRunning

	call := func() tea.Msg {
		res, err := inst.Call(context.Background(), name, args...)
		if err != nil {
			return callResultMsg{err: err}
		}
		if res.Void() {
			return callResultMsg{result: "(no result)"}
		}
		return callResultMsg{result: res.String()}
	}
	return tea.Batch(call, tick())
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.state == stateLoading {
		return "Loading module..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Jvav Runner"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		if len(m.funcs) == 0 {
			b.WriteString("The module exports no functions.\n\n")
			b.WriteString(helpStyle.Render("q quit"))
			break
		}
		b.WriteString("Select a function to call:\n\n")
		for i, f := range m.funcs {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + f.String()))
			} else {
				b.WriteString("  " + m.formatFunc(f))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(f.Name)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(api.ValueTypeName(f.Params[i])))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateRunning:
		b.WriteString(fmt.Sprintf("Running %s...\n\n", funcStyle.Render(m.funcs[m.selected].Name)))
		m.writeOutput(&b)

	case stateAsk:
		m.writeOutput(&b)
		b.WriteString(questionStyle.Render(m.pending.Question))
		b.WriteString("\n")
		b.WriteString(m.answer.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter answer • esc cancel"))

	case stateShowResult:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(f.Name)))
		m.writeOutput(&b)
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) writeOutput(b *strings.Builder) {
	out := strings.TrimRight(m.output.String(), "\n")
	if out == "" {
		return
	}
	b.WriteString(outputStyle.Render(out))
	b.WriteString("\n\n")
}

func (m *interactiveModel) formatFunc(f runtime.Export) string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = typeStyle.Render(api.ValueTypeName(p))
	}
	result := ""
	if len(f.Results) > 0 {
		results := make([]string, len(f.Results))
		for i, r := range f.Results {
			results[i] = api.ValueTypeName(r)
		}
		result = " -> " + typeStyle.Render(strings.Join(results, ", "))
	}
	return funcStyle.Render(f.Name) + "(" + strings.Join(params, ", ") + ")" + result
}

func runInteractive(cfg runtime.Config, filename string) error {
	// The alternate screen owns the terminal; diagnostics would corrupt it.
	cfg.Logger = zap.NewNop()

	m := newInteractiveModel(cfg, filename)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	m.close()
	return err
}
