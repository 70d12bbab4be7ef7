package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/siamclean/dispatch/cmd/cli/commands"
	"github.com/siamclean/dispatch/internal/config"
	"github.com/siamclean/dispatch/pkg/clients/lineclient"
	"github.com/siamclean/dispatch/pkg/clients/mailclient"
	"github.com/siamclean/dispatch/pkg/core/compose"
	"github.com/siamclean/dispatch/pkg/postgres"
	"github.com/siamclean/dispatch/pkg/utils/logging"
)

var (
	env string
	app *commands.AppContext
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dispatch",
		Short: "SiamClean dispatch - job offers, cancellation cascades and escalations",
		Long:  `A service for dispatching field-service job offers to staff over LINE, handling cancellation cascades and escalating unclaimed jobs.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				if app.Logger != nil {
					app.Logger.Sync()
				}
				if app.Database != nil {
					app.Database.Close()
				}
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: dev, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.CreateOfferCmd(appRef()))
	rootCmd.AddCommand(commands.ListOffersCmd(appRef()))
	rootCmd.AddCommand(commands.AcceptOfferCmd(appRef()))
	rootCmd.AddCommand(commands.CancelOfferCmd(appRef()))
	rootCmd.AddCommand(commands.CancelBookingCmd(appRef()))
	rootCmd.AddCommand(commands.EscalateOfferCmd(appRef()))
	rootCmd.AddCommand(commands.RemindOfferCmd(appRef()))
	rootCmd.AddCommand(commands.RunSchedulerCmd(appRef()))
	rootCmd.AddCommand(commands.ServeCmd(appRef()))
	rootCmd.AddCommand(commands.MigrateCmd(appRef()))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// appRef returns the shared AppContext. The struct is allocated up front so
// commands can capture the pointer before initApp fills it in.
func appRef() *commands.AppContext {
	if app == nil {
		app = &commands.AppContext{Ctx: context.Background()}
	}
	return app
}

// initApp sets up logger, config, clients, and database
func initApp() error {
	var err error
	appRef()

	app.Logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully")

	app.Logger.Info("Connecting to database")
	app.Database, err = postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.Store = app.Database
	app.Logger.Debug("Database connected")

	app.Logger.Info("Initializing LINE client")
	app.Pusher = lineclient.NewClient(app.Cfg.LineChannelToken, app.Cfg.Channel.BaseURL, app.Logger)

	app.Composer = compose.NewComposer(app.Cfg.AppBaseURL)

	if app.Cfg.MailerConfigured() {
		app.Logger.Info("Initializing audit mailer")
		mailer, err := mailclient.NewClient(app.Ctx, mailclient.Config{
			ClientID:     app.Cfg.GmailClientID,
			ClientSecret: app.Cfg.GmailClientSecret,
			RefreshToken: app.Cfg.GmailRefreshToken,
			Sender:       app.Cfg.Gmail.Sender,
			OpsInbox:     app.Cfg.Gmail.OpsInbox,
		})
		if err != nil {
			return fmt.Errorf("failed to create audit mailer: %w", err)
		}
		app.Mailer = mailer
	} else {
		app.Logger.Info("Audit mailer not configured, cancellation audit email disabled")
	}

	app.Logger.Info("Application initialized")
	return nil
}
