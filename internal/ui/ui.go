// Package ui renders terminal progress for long-running CLI work.
package ui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

type doneMsg[T any] struct {
	value T
	err   error
}

// model shows a spinner until the job reports back.
type model[T any] struct {
	spinner spinner.Model
	title   string
	job     tea.Cmd
	done    bool
	value   T
	err     error
}

func newModel[T any](title string, job tea.Cmd) model[T] {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	return model[T]{spinner: s, title: title, job: job}
}

func (m model[T]) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.job)
}

func (m model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg[T]:
		m.done = true
		m.value, m.err = msg.value, msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model[T]) View() string {
	switch {
	case !m.done:
		return fmt.Sprintf("%s %s\n", m.spinner.View(), m.title)
	case m.err != nil:
		return failStyle.Render("✗") + " " + m.title + "\n"
	default:
		return doneStyle.Render("✓") + " " + m.title + "\n"
	}
}

// Spin runs job while drawing a spinner labelled title on out. It returns
// whatever job returns. Canceling ctx stops both.
func Spin[T any](ctx context.Context, out io.Writer, title string, job func(context.Context) (T, error)) (T, error) {
	run := func() tea.Msg {
		v, err := job(ctx)
		return doneMsg[T]{value: v, err: err}
	}

	p := tea.NewProgram(newModel[T](title, run),
		tea.WithContext(ctx),
		tea.WithOutput(out),
		tea.WithInput(nil),
	)
	final, err := p.Run()
	if err != nil {
		var zero T
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, fmt.Errorf("progress display: %w", err)
	}
	m := final.(model[T])
	return m.value, m.err
}
