package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	tickEvery   = 200 * time.Millisecond
	defaultWait = 2 * time.Minute
)

type actionMsg struct {
	details []string
	err     error
}

type tickMsg time.Time

type model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	title   string
	started time.Time
	elapsed time.Duration
	details []string
	err     error
	done    bool
	action  func(context.Context) ([]string, error)
}

func tick() tea.Cmd {
	return tea.Tick(tickEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd {
	run := func() tea.Msg {
		details, err := m.action(m.ctx)
		return actionMsg{details: details, err: err}
	}
	return tea.Batch(run, tick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			m.err = context.Canceled
			m.done = true
			return m, tea.Quit
		}
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.elapsed = time.Time(msg).Sub(m.started)
		return m, tick()
	case actionMsg:
		m.details = msg.details
		m.err = msg.err
		m.done = true
		m.elapsed = time.Since(m.started)
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	elapsed := mutedStyle.Render(m.elapsed.Round(100 * time.Millisecond).String())
	switch {
	case !m.done:
		fmt.Fprintf(&b, "\nRunning... %s\n", elapsed)
		return b.String()
	case m.err != nil:
		fmt.Fprintf(&b, "%s: %v %s\n", failStyle.Render("FAILED"), m.err, elapsed)
	default:
		fmt.Fprintf(&b, "%s %s\n", okStyle.Render("OK"), elapsed)
	}
	for _, d := range m.details {
		b.WriteString("- " + d + "\n")
	}
	return b.String()
}

// Run shows a progress view while action executes and returns its result.
func Run(ctx context.Context, title string, timeout time.Duration, action func(context.Context) ([]string, error)) ([]string, error) {
	if timeout <= 0 {
		timeout = defaultWait
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	m := model{ctx: runCtx, cancel: cancel, title: title, started: time.Now(), action: action}
	final, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if err != nil {
		return nil, err
	}
	res := final.(model)
	return res.details, res.err
}
