package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/siamclean/dispatch/pkg/core/services"
)

// EscalateOfferCmd creates the escalateOffer command
func EscalateOfferCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "escalateOffer <offer_id>",
		Short: "Send an urgency nudge for an offer that is still unclaimed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			offer, err := app.Store.GetOffer(app.Ctx, args[0])
			if err != nil {
				return err
			}
			minutesPending := int(time.Since(offer.OpenedAt).Minutes())
			if minutesPending < 0 {
				minutesPending = 0
			}

			sent, err := services.Escalate(app.Ctx, app.Store, app.Pusher, app.Composer, app.Logger,
				offer.ID, minutesPending, app.DefaultLocale())
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Escalation sent for %s (pending %d minutes, delivered=%t)\n\n",
				offer.ID, minutesPending, sent)
			return nil
		},
	}
}
