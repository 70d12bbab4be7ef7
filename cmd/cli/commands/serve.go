package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/siamclean/dispatch/internal/queue"
	"github.com/siamclean/dispatch/internal/server"
)

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the broker consumer until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if migrate {
				app.Logger.Info("Running database migrations")
				if err := app.Database.RunMigrations(app.Ctx); err != nil {
					return fmt.Errorf("failed to run migrations: %w", err)
				}
				app.Logger.Info("Migrations complete")
			}

			ctx, cancel := context.WithCancel(app.Ctx)
			defer cancel()

			consumer := queue.NewConsumer(
				app.Cfg.AMQPURL,
				app.Cfg.Queue.StaffCancellationQueue,
				app.Cfg.Queue.BookingCancellationQueue,
				app.Store,
				app.Pusher,
				app.Mailer,
				app.Composer,
				app.Logger,
				app.Cfg.OperatorRecipientIDs,
				app.DefaultLocale(),
			)
			go func() {
				if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					app.Logger.Error("Consumer stopped", zap.Error(err))
				}
			}()

			handler := server.NewHandler(app.Store, app.Pusher, app.Mailer, app.Composer,
				app.Logger, app.Cfg.OperatorRecipientIDs, app.DefaultLocale())
			e := server.NewRouter(handler)

			go func() {
				app.Logger.Info("HTTP server listening", zap.String("addr", app.Cfg.Server.Addr))
				if err := e.Start(app.Cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					app.Logger.Error("HTTP server stopped", zap.Error(err))
				}
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			app.Logger.Info("Shutting down")
			cancel()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := e.Shutdown(shutdownCtx); err != nil {
				app.Logger.Warn("HTTP shutdown error", zap.Error(err))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "Run database migrations before serving")
	return cmd
}
