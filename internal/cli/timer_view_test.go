package cli

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/tally/internal/domain"
	"github.com/alexanderramin/tally/internal/teatest"
	"github.com/alexanderramin/tally/internal/timer"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func startedWatch(t *testing.T) (cliFixture, watchModel) {
	t.Helper()
	f := testApp(t)
	require.NoError(t, f.app.Timer.Start(context.Background(), timer.TaskRef{ID: f.task.ID, Name: f.task.Name}))
	return f, newWatchModel(context.Background(), f.app)
}

func TestWatchModel_TickAdvancesClock(t *testing.T) {
	f, m := startedWatch(t)

	f.clock.Advance(3 * time.Second)
	next, cmd := m.Update(watchTickMsg(time.Now()))
	m = next.(watchModel)

	assert.NotNil(t, cmd, "ticking continues")
	assert.Equal(t, 3*time.Second, m.elapsed)
	assert.Contains(t, m.View(), "00:00:03")
	assert.Contains(t, m.View(), "Essay")
}

func TestWatchModel_TogglePausesAndResumes(t *testing.T) {
	f, m := startedWatch(t)

	f.clock.Advance(4 * time.Second)
	next, _ := m.Update(keyPress("p"))
	m = next.(watchModel)
	assert.Equal(t, domain.TimerPaused, f.app.Timer.State().Status)
	assert.Contains(t, m.View(), "Paused")

	f.clock.Advance(10 * time.Second)
	next, _ = m.Update(watchTickMsg(time.Now()))
	m = next.(watchModel)
	assert.Equal(t, 4*time.Second, m.elapsed, "paused time is not counted")

	next, _ = m.Update(keyPress("p"))
	m = next.(watchModel)
	assert.Equal(t, domain.TimerRunning, f.app.Timer.State().Status)
	assert.Equal(t, 4*time.Second, m.elapsed)
}

func TestWatchModel_StopRecordsAndQuits(t *testing.T) {
	f, m := startedWatch(t)
	f.clock.Advance(90 * time.Second)

	next, cmd := m.Update(keyPress("s"))
	m = next.(watchModel)
	require.NotNil(t, cmd)
	assert.True(t, m.stopping)

	// Ticks and keys are ignored while the run is being recorded.
	next, _ = m.Update(keyPress("p"))
	m = next.(watchModel)
	assert.Equal(t, domain.TimerRunning, f.app.Timer.State().Status)

	next, quit := m.Update(cmd())
	m = next.(watchModel)
	require.NotNil(t, quit)
	assert.Equal(t, tea.QuitMsg{}, quit())
	require.NotNil(t, m.recorded)
	require.NotNil(t, m.recorded.Duration)
	assert.Equal(t, 90, *m.recorded.Duration)
	assert.Equal(t, domain.TimerIdle, f.app.Timer.State().Status)
	assert.Len(t, f.sessions(t), 1)
}

func TestWatchModel_QuitLeavesTimerRunning(t *testing.T) {
	f, m := startedWatch(t)

	_, cmd := m.Update(keyPress("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, domain.TimerRunning, f.app.Timer.State().Status)
	assert.Empty(t, f.sessions(t))
}

func TestWatchModel_DrivenSession(t *testing.T) {
	f, _ := startedWatch(t)
	f.app.TickInterval = time.Hour

	d := teatest.New(t, newWatchModel(context.Background(), f.app),
		teatest.WithSize(80, 24), teatest.WithCmdTimeout(500*time.Millisecond))
	d.DrainInit()

	f.clock.Advance(20 * time.Second)
	d.PressKey('p')
	f.clock.Advance(time.Minute)
	d.PressKey('p')
	f.clock.Advance(10 * time.Second)
	d.Send(watchTickMsg(time.Now()))
	assert.Contains(t, d.View(), "00:00:30")

	d.PressKey('s')
	require.True(t, d.Quitting)

	m := d.Model.(watchModel)
	require.NoError(t, m.err)
	require.NotNil(t, m.recorded)
	assert.Equal(t, 30, *m.recorded.Duration)
	assert.Equal(t, 90*time.Second, m.recorded.EndTime.Sub(m.recorded.StartTime))
}
