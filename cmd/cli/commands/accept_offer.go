package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siamclean/dispatch/pkg/core/services"
)

// AcceptOfferCmd creates the acceptOffer command
func AcceptOfferCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "acceptOffer <offer_id> <staff_id>",
		Short: "Accept an open offer on behalf of a staff member (first accept wins)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			offerID, staffID := args[0], args[1]

			if err := services.AcceptOffer(app.Ctx, app.Store, app.Logger, offerID, staffID); err != nil {
				return err
			}

			fmt.Printf("\n✓ Offer %s assigned to %s\n\n", offerID, staffID)
			return nil
		},
	}
}
