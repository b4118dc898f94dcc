package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/tally/internal/cli/formatter"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	dps "github.com/markusmobius/go-dateparser"
)

func tallyHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// confirm asks a yes/no question on the terminal. Defaults to no.
func confirm(title string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithTheme(tallyHuhTheme()).WithShowHelp(false)

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("confirmation prompt: %w", err)
	}
	return ok, nil
}

const dayLayout = "2006-01-02"

// parseDay resolves a --date value. Plain YYYY-MM-DD is taken as a UTC day;
// anything else goes through natural-language parsing relative to now.
func parseDay(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	if t, err := time.Parse(dayLayout, raw); err == nil {
		return t, nil
	}

	cfg := &dps.Configuration{CurrentTime: now}
	dt, err := dps.Parse(cfg, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", raw, err)
	}
	if dt.Time.IsZero() {
		return time.Time{}, fmt.Errorf("parsing date %q: no date found", raw)
	}
	// Calendar day as seen in now's zone.
	y, m, d := dt.Time.In(now.Location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}
