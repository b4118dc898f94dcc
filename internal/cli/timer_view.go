package cli

import (
	"context"
	"strings"
	"time"

	"github.com/alexanderramin/tally/internal/cli/formatter"
	"github.com/alexanderramin/tally/internal/domain"
	"github.com/alexanderramin/tally/internal/timer"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type watchKeyMap struct {
	Toggle key.Binding
	Stop   key.Binding
	Quit   key.Binding
}

func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Stop, k.Quit}
}

func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultWatchKeys() watchKeyMap {
	return watchKeyMap{
		Toggle: key.NewBinding(key.WithKeys("p", " "), key.WithHelp("p", "pause/resume")),
		Stop:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop & record")),
		Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "leave running")),
	}
}

// watchTickMsg drives the once-per-tick refresh.
type watchTickMsg time.Time

type watchStoppedMsg struct {
	finished *timer.Finished
	session  *domain.Session
	err      error
}

// watchModel renders the live timer. Every tick goes through Machine.Tick,
// so the snapshot on disk trails the view by at most one interval.
type watchModel struct {
	ctx   context.Context
	app   *App
	every time.Duration

	state    timer.State
	elapsed  time.Duration
	notice   string
	stopping bool

	keys watchKeyMap
	help help.Model

	finished *timer.Finished
	recorded *domain.Session
	err      error
}

func newWatchModel(ctx context.Context, app *App) watchModel {
	every := app.TickInterval
	if every <= 0 {
		every = timer.DefaultTickInterval
	}
	return watchModel{
		ctx:     ctx,
		app:     app,
		every:   every,
		state:   app.Timer.State(),
		elapsed: app.Timer.Elapsed(),
		keys:    defaultWatchKeys(),
		help:    help.New(),
	}
}

func (m watchModel) tick() tea.Cmd {
	return tea.Tick(m.every, func(t time.Time) tea.Msg {
		return watchTickMsg(t)
	})
}

func (m watchModel) Init() tea.Cmd {
	return m.tick()
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case watchTickMsg:
		if m.stopping {
			return m, nil
		}
		elapsed, err := m.app.Timer.Tick(m.ctx)
		if err != nil {
			m.notice = err.Error()
		} else {
			m.elapsed = elapsed
		}
		m.state = m.app.Timer.State()
		return m, m.tick()

	case watchStoppedMsg:
		m.stopping = false
		if msg.err != nil {
			// The run is still active; let the user retry or leave.
			m.notice = msg.err.Error()
			m.state = m.app.Timer.State()
			return m, m.tick()
		}
		m.finished = msg.finished
		m.recorded = msg.session
		m.state = m.app.Timer.State()
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case m.stopping:
			return m, nil
		case key.Matches(msg, m.keys.Toggle):
			return m.toggle(), nil
		case key.Matches(msg, m.keys.Stop):
			m.stopping = true
			m.notice = ""
			return m, m.stop()
		}
	}
	return m, nil
}

func (m watchModel) toggle() watchModel {
	var err error
	switch m.app.Timer.State().Status {
	case domain.TimerRunning:
		err = m.app.Timer.Pause(m.ctx)
	case domain.TimerPaused:
		err = m.app.Timer.Resume(m.ctx)
	default:
		return m
	}
	m.notice = ""
	if err != nil {
		m.notice = err.Error()
	}
	m.state = m.app.Timer.State()
	m.elapsed = m.app.Timer.Elapsed()
	return m
}

func (m watchModel) stop() tea.Cmd {
	ctx, app := m.ctx, m.app
	return func() tea.Msg {
		sess, f, err := finishRun(ctx, app)
		return watchStoppedMsg{finished: f, session: sess, err: err}
	}
}

func (m watchModel) View() string {
	var b strings.Builder

	clock := lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true).
		Render(formatter.Clock(m.elapsed))

	b.WriteString(formatter.TimerStatusPill(m.state.Status) + "  " + clock + "\n")
	if m.state.Task.Name != "" {
		b.WriteString(formatter.Bold(m.state.Task.Name))
		if m.state.Task.Domain != "" {
			b.WriteString(formatter.Dim("  " + m.state.Task.Domain))
		}
		b.WriteString("\n")
	}
	if m.state.Task.Description != "" {
		b.WriteString(formatter.Dim(m.state.Task.Description) + "\n")
	}
	if m.stopping {
		b.WriteString(formatter.Dim("recording...") + "\n")
	}
	if m.notice != "" {
		b.WriteString(formatter.StyleRed.Render(m.notice) + "\n")
	}

	return formatter.RenderBox("Timer", b.String()) + "\n" + m.help.View(m.keys) + "\n"
}
