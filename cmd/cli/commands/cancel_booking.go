package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siamclean/dispatch/pkg/core/services"
)

// CancelBookingCmd creates the cancelBooking command
func CancelBookingCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancelBooking <booking_id>",
		Short: "Cancel every child offer of a booking and notify previous holders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcomes, err := services.CancelBooking(app.Ctx, app.Store, app.Pusher, app.Composer, app.Logger,
				args[0], app.DefaultLocale())
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Booking %s cancelled.\n\n", args[0])
			printOutcomes("Holders", outcomes)
			return nil
		},
	}
}
