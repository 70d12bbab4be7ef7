package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/siamclean/dispatch/pkg/core/services"
)

// RemindOfferCmd creates the remindOffer command
func RemindOfferCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remindOffer <offer_id> <minutes_before>",
		Short: "Send a pre-start reminder to the staff member holding an offer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			minutesBefore, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("minutes_before must be a number: %w", err)
			}

			sent, err := services.Remind(app.Ctx, app.Store, app.Pusher, app.Composer, app.Logger,
				args[0], minutesBefore, app.DefaultLocale())
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Reminder sent for %s (delivered=%t)\n\n", args[0], sent)
			return nil
		},
	}
}
