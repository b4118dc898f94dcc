package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alexanderramin/tally/internal/cli/formatter"
	"github.com/alexanderramin/tally/internal/domain"
	"github.com/spf13/cobra"
)

func newSessionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage work sessions",
	}

	cmd.AddCommand(
		newSessionAddCmd(app),
		newSessionEditCmd(app),
		newSessionRemoveCmd(app),
		newSessionListCmd(app),
		newSessionImportCmd(app),
	)

	return cmd
}

func newSessionAddCmd(app *App) *cobra.Command {
	var taskID, start, end, description string
	var duration int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a session by hand",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := domain.NewSession{
				TaskID:      taskID,
				StartTime:   start,
				EndTime:     end,
				Description: description,
			}
			if cmd.Flags().Changed("duration") {
				in.Duration = &duration
			}

			sess, err := app.Sessions.Insert(cmd.Context(), app.UserID, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded session %s (%s)\n",
				sess.ID, formatter.TimeRange(sess.StartTime, sess.EndTime))
			return nil
		},
	}

	cmd.Flags().StringVar(&taskID, "task", "", "Task ID")
	cmd.Flags().StringVar(&start, "start", "", "Start time, e.g. 2025-01-01T09:00:00Z")
	cmd.Flags().StringVar(&end, "end", "", "End time, e.g. 2025-01-01T10:00:00Z")
	cmd.Flags().IntVar(&duration, "duration", 0, "Effective seconds worked (defaults to unset)")
	cmd.Flags().StringVar(&description, "description", "", "Session description")
	_ = cmd.MarkFlagRequired("task")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func newSessionEditCmd(app *App) *cobra.Command {
	var description, end string
	var duration int

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a session's description, duration or end time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.SessionPatch
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("duration") {
				patch.Duration = &duration
			}
			if cmd.Flags().Changed("end") {
				patch.EndTime = &end
			}

			sess, err := app.Sessions.Update(cmd.Context(), app.UserID, args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated session %s (%s)\n",
				sess.ID, formatter.TimeRange(sess.StartTime, sess.EndTime))
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().IntVar(&duration, "duration", 0, "New effective seconds")
	cmd.Flags().StringVar(&end, "end", "", "New end time")

	return cmd
}

func newSessionRemoveCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove"},
		Short:   "Delete a session",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !yes && app.interactive() {
				confirmed, err := confirm(fmt.Sprintf("Delete session %s?", args[0]))
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(out, "Cancelled.")
					return nil
				}
			}

			deleted, err := app.Sessions.Delete(cmd.Context(), app.UserID, args[0])
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Fprintf(out, "Session %s not found.\n", args[0])
				return nil
			}
			fmt.Fprintf(out, "Removed session %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func newSessionListCmd(app *App) *cobra.Command {
	var date, taskID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var sessions []*domain.Session
			var err error
			title := "Sessions"

			switch {
			case date != "":
				day, parseErr := parseDay(date, app.now())
				if parseErr != nil {
					return parseErr
				}
				title = "Sessions on " + day.Format("2006-01-02")
				sessions, err = app.Sessions.ListForDate(ctx, app.UserID, day)
			case taskID != "":
				sessions, err = app.Sessions.ListByTask(ctx, app.UserID, taskID)
			default:
				sessions, err = app.Sessions.ListByUser(ctx, app.UserID)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions found.")
				return nil
			}

			headers := []string{"ID", "TASK", "WHEN", "DURATION", "DESCRIPTION"}
			rows := make([][]string, 0, len(sessions))
			total := 0
			for _, s := range sessions {
				if s.Duration != nil {
					total += *s.Duration
				} else {
					total += int(s.EndTime.Sub(s.StartTime).Seconds())
				}
				rows = append(rows, []string{
					s.ID,
					formatter.TruncID(s.TaskID),
					formatter.TimeRange(s.StartTime, s.EndTime),
					formatter.FormatDurationPtr(s.Duration),
					formatter.Preview(s.Description, 40),
				})
			}

			body := formatter.RenderTable(headers, rows) + "\n" +
				formatter.Dim(fmt.Sprintf("%d sessions, %s", len(sessions), formatter.FormatSeconds(total)))
			fmt.Fprintln(out, formatter.RenderBox(title, body))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", `Only sessions starting on this UTC day ("2025-01-01", "yesterday", "last friday")`)
	cmd.Flags().StringVar(&taskID, "task", "", "Only sessions of this task")

	return cmd
}

// importItem mirrors one entry of the batch endpoint body.
type importItem struct {
	ID          string  `json:"id"`
	TaskID      string  `json:"taskId"`
	StartTime   string  `json:"startTime"`
	EndTime     string  `json:"endTime"`
	Duration    *int    `json:"duration"`
	Description *string `json:"description"`
}

type importFile struct {
	Sessions []importItem `json:"sessions"`
}

func newSessionImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: `Apply a JSON batch of sessions atomically ("-" reads stdin)`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening import file: %w", err)
				}
				defer f.Close()
				r = f
			}

			var file importFile
			if err := json.NewDecoder(r).Decode(&file); err != nil {
				return fmt.Errorf("decoding import file: %w", err)
			}

			items := make([]domain.SessionUpsert, 0, len(file.Sessions))
			for _, s := range file.Sessions {
				items = append(items, domain.SessionUpsert{
					ID:          s.ID,
					TaskID:      s.TaskID,
					StartTime:   s.StartTime,
					EndTime:     s.EndTime,
					Duration:    s.Duration,
					Description: s.Description,
				})
			}

			written, err := app.Sessions.UpdateMultiple(cmd.Context(), app.UserID, items)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d sessions\n", len(written))
			return nil
		},
	}
}
