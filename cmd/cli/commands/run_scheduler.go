package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/siamclean/dispatch/pkg/core/services"
	"github.com/siamclean/dispatch/pkg/lease"
)

// RunSchedulerCmd creates the runScheduler command
func RunSchedulerCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "runScheduler",
		Short: "Run the escalation scheduler until interrupted",
		Long: `Run the periodic escalation pass. On each tick every open offer is
checked against the configured pending-time thresholds; offers that crossed
a new threshold get an urgency notification. A Redis lease keeps concurrent
scheduler instances from double-notifying, and the optional quiet-window
rule suppresses passes overnight.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			redisClient := redis.NewClient(&redis.Options{
				Addr:     app.Cfg.RedisAddr,
				Password: app.Cfg.RedisPassword,
				DB:       app.Cfg.RedisDB,
			})
			defer redisClient.Close()

			if err := redisClient.Ping(app.Ctx).Err(); err != nil {
				return fmt.Errorf("failed to connect to redis: %w", err)
			}

			offerLease := lease.NewRedisLease(redisClient,
				time.Duration(app.Cfg.Escalation.LeaseTTLSeconds)*time.Second)

			policy := services.EscalationPolicy{
				Thresholds:  app.Cfg.Escalation.ThresholdsMinutes,
				QuietRule:   app.Cfg.QuietRule(),
				QuietWindow: time.Duration(app.Cfg.Escalation.QuietWindowMinutes) * time.Minute,
				Locale:      app.DefaultLocale(),
			}

			scheduler := cron.New()
			_, err := scheduler.AddFunc(app.Cfg.Escalation.CronSpec, func() {
				result, err := services.RunEscalationPass(app.Ctx, app.Store, offerLease,
					app.Pusher, app.Composer, app.Logger, policy, time.Now().UTC())
				if err != nil {
					app.Logger.Error("Escalation pass failed", zap.Error(err))
					return
				}
				app.Logger.Info("Escalation pass complete",
					zap.Int("scanned", result.Scanned),
					zap.Int("escalated", result.Escalated),
					zap.Int("skipped", result.Skipped),
					zap.Int("failures", result.Failures))
			})
			if err != nil {
				return fmt.Errorf("failed to schedule escalation pass: %w", err)
			}

			scheduler.Start()
			app.Logger.Info("Escalation scheduler running",
				zap.String("cadence", app.Cfg.Escalation.CronSpec),
				zap.Ints("thresholds_minutes", app.Cfg.Escalation.ThresholdsMinutes))
			fmt.Printf("Escalation scheduler running (%s). Ctrl-C to stop.\n", app.Cfg.Escalation.CronSpec)

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			ctx := scheduler.Stop()
			<-ctx.Done()
			app.Logger.Info("Escalation scheduler stopped")
			return nil
		},
	}
}
