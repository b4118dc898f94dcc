package cli

import (
	"log/slog"
	"time"

	"github.com/alexanderramin/tally/internal/service"
	"github.com/alexanderramin/tally/internal/timer"
	"github.com/spf13/cobra"
)

// App holds the services and settings CLI commands run against.
type App struct {
	Sessions service.SessionService
	Tasks    service.TaskService
	Timer    *timer.Machine

	// UserID scopes every command.
	UserID       string
	Logger       *slog.Logger
	HTTPAddr     string
	TickInterval time.Duration

	// Now defaults to time.Now; tests pin it.
	Now func() time.Time

	// IsInteractive reports whether prompts may be shown. Nil means never.
	IsInteractive func() bool
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// NewRootCmd creates the top-level "tally" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "tally",
		Short:         "Work timer and session ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newTaskCmd(app),
		newSessionCmd(app),
		newTimerCmd(app),
		newServeCmd(app),
	)

	return root
}
