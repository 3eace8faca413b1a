package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ftahirops/waitscope/engine"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// runDoneMsg carries the engine's result (or failure) back to the model
// once the background run completes.
type runDoneMsg struct {
	result *engine.Result
	err    error
}

// progressModel is a minimal full-screen status line: it shows that a run
// is in flight and, once it completes, whether it succeeded, handing the
// terminal back to the caller so the table report can print normally.
type progressModel struct {
	ctx    context.Context
	eng    *engine.Engine
	trace  *tracePayload
	result *engine.Result
	err    error
	done   bool
}

func newProgressModel(ctx context.Context, eng *engine.Engine, trace *tracePayload) progressModel {
	return progressModel{ctx: ctx, eng: eng, trace: trace}
}

func (m progressModel) Init() tea.Cmd {
	return func() tea.Msg {
		result, err := m.eng.Run(m.ctx, m.trace.Trace)
		return runDoneMsg{result: result, err: err}
	}
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runDoneMsg:
		m.result = msg.result
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	if !m.done {
		return titleStyle.Render("waitscope") + " — running sweeps over the trace...\n"
	}
	if m.err != nil {
		return errStyle.Render(fmt.Sprintf("waitscope: run failed: %v", m.err)) + "\n"
	}
	return doneStyle.Render(fmt.Sprintf("waitscope: run %s complete", m.result.RunID)) + "\n"
}
