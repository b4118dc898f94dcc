package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/alexanderramin/tally/internal/cli/formatter"
	"github.com/alexanderramin/tally/internal/domain"
	"github.com/alexanderramin/tally/internal/timer"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newTimerCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Run the work timer",
	}

	cmd.AddCommand(
		newTimerStartCmd(app),
		newTimerPauseCmd(app),
		newTimerResumeCmd(app),
		newTimerStatusCmd(app),
		newTimerStopCmd(app),
		newTimerWatchCmd(app),
	)

	return cmd
}

func newTimerStartCmd(app *App) *cobra.Command {
	var description string
	var watch bool

	cmd := &cobra.Command{
		Use:   "start TASK_ID",
		Short: "Start timing a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			task, err := app.Tasks.GetByID(ctx, app.UserID, args[0])
			if err != nil {
				return err
			}

			ref := timer.TaskRef{
				ID:          task.ID,
				Name:        task.Name,
				Domain:      task.Domain,
				Subdomain:   task.Subdomain,
				Description: description,
			}
			if err := app.Timer.Start(ctx, ref); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started timer for %s\n", task.Name)

			if watch {
				return runWatch(ctx, app, cmd.OutOrStdout())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Description stored with the session")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Open the live view after starting")

	return cmd
}

func newTimerPauseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the running timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Timer.Pause(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Paused at %s\n", formatter.Clock(app.Timer.Elapsed()))
			return nil
		},
	}
}

func newTimerResumeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume a paused timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Timer.Resume(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Resumed at %s\n", formatter.Clock(app.Timer.Elapsed()))
			return nil
		},
	}
}

func newTimerStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the timer state",
		RunE: func(cmd *cobra.Command, args []string) error {
			writeTimerStatus(cmd.OutOrStdout(), app.Timer.State(), app.Timer.Elapsed())
			return nil
		},
	}
}

func writeTimerStatus(w io.Writer, s timer.State, elapsed time.Duration) {
	if !s.Active() {
		fmt.Fprintln(w, formatter.TimerStatusPill(domain.TimerIdle))
		return
	}
	fmt.Fprintf(w, "%s  %s  %s\n", formatter.TimerStatusPill(s.Status), formatter.Bold(formatter.Clock(elapsed)), s.Task.Name)
	fmt.Fprintf(w, "%s %s\n", formatter.Dim("started"), s.StartTime.Local().Format("2006-01-02 15:04:05"))
	if s.Task.Description != "" {
		fmt.Fprintf(w, "%s %s\n", formatter.Dim("note"), s.Task.Description)
	}
}

func newTimerStopCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the timer and record the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, f, err := finishRun(cmd.Context(), app)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s on %s (%s)\n",
				formatter.FormatSeconds(f.Duration), f.Task.Name, sess.ID)
			return nil
		},
	}
}

// finishRun stops the timer and stores the run. The timer stays active when
// the store rejects the run.
func finishRun(ctx context.Context, app *App) (*domain.Session, *timer.Finished, error) {
	var sess *domain.Session
	f, err := app.Timer.Finish(ctx, func(ctx context.Context, run timer.Finished) error {
		var err error
		sess, err = app.Sessions.RecordTimerRun(ctx, app.UserID, run)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return sess, f, nil
}

func newTimerWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live view of the running timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), app, cmd.OutOrStdout())
		},
	}
}

func runWatch(ctx context.Context, app *App, out io.Writer) error {
	if !app.Timer.State().Active() {
		return fmt.Errorf("no active timer; start one with \"tally timer start TASK_ID\"")
	}

	final, err := tea.NewProgram(newWatchModel(ctx, app), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("running timer view: %w", err)
	}

	m, ok := final.(watchModel)
	if !ok {
		return nil
	}
	if m.err != nil {
		return m.err
	}
	if m.recorded != nil {
		fmt.Fprintf(out, "Recorded %s on %s (%s)\n",
			formatter.FormatSeconds(m.finished.Duration), m.finished.Task.Name, m.recorded.ID)
	}
	return nil
}
