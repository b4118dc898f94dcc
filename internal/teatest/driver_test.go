package teatest

import (
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

type bumpMsg struct{}

// counter bumps on "+" via a Cmd, quits on "q" and schedules a slow tick
// from Init that the driver should drop.
type counter struct {
	n     int
	width int
}

func (c counter) Init() tea.Cmd {
	return tea.Tick(time.Hour, func(time.Time) tea.Msg { return bumpMsg{} })
}

func (c counter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.width = msg.Width
	case bumpMsg:
		c.n++
	case tea.KeyMsg:
		switch msg.String() {
		case "+":
			return c, tea.Batch(
				func() tea.Msg { return bumpMsg{} },
				func() tea.Msg { return bumpMsg{} },
			)
		case "q":
			return c, tea.Quit
		}
	}
	return c, nil
}

func (c counter) View() string {
	return fmt.Sprintf("n=%d w=%d", c.n, c.width)
}

func TestDriver_DrainsBatchesAndDropsSlowCmds(t *testing.T) {
	d := New(t, counter{}, WithSize(40, 10), WithCmdTimeout(20*time.Millisecond))
	d.DrainInit()
	assert.Equal(t, "n=0 w=40", d.View())

	d.PressKey('+')
	assert.Equal(t, "n=2 w=40", d.View())
}

func TestDriver_StopsAfterQuit(t *testing.T) {
	d := New(t, counter{})

	d.PressKey('q')
	assert.True(t, d.Quitting)

	d.PressKey('+')
	assert.Equal(t, "n=0 w=0", d.View())
}
