package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/adforge/internal/adapters/httpapi"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(app *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve ad sessions over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := app.sessionService(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			sweepCtx, cancelSweep := context.WithCancel(ctx)
			defer cancelSweep()
			go svc.RunSweeper(sweepCtx)

			server := httpapi.New(svc, httpapi.Options{
				AllowedOrigins: app.settings.Server.AllowedOrigins,
				MaxUploadBytes: app.settings.App.MaxUploadBytes,
				Gatherer:       app.registry,
				Logger:         app.logger.Named("http"),
			})

			app.logger.Info("serving ad sessions",
				zap.String("addr", listen),
				zap.String("artifacts_backend", app.settings.Artifacts.Backend),
			)
			return server.Serve(ctx, listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", app.settings.Server.Listen, "Listen address")

	return cmd
}
