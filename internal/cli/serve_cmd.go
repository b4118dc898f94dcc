package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/alexanderramin/tally/internal/httpapi"
	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			handler := httpapi.NewHandler(app.Sessions, app.Tasks, app.logger())
			return httpapi.Serve(ctx, addr, handler, app.logger())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", app.HTTPAddr, "Listen address")

	return cmd
}
