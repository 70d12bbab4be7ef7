package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// ListOffersCmd creates the listOffers command
func ListOffersCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listOffers",
		Short: "List every job offer currently open",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			offers, err := app.Store.ListOpenOffers(app.Ctx)
			if err != nil {
				return err
			}

			if len(offers) == 0 {
				fmt.Println("\nNo open offers.")
				return nil
			}

			fmt.Printf("\nOpen offers (%d):\n\n", len(offers))
			for _, offer := range offers {
				pending := int(time.Since(offer.OpenedAt).Minutes())
				fmt.Printf("  %s  booking=%s  scheduled=%s  pending=%dm  level=%d  eligible=%d\n",
					offer.ID,
					offer.ParentBookingID,
					offer.ScheduledAt.Format("2006-01-02 15:04"),
					pending,
					offer.EscalationLevel,
					len(offer.EligibleStaffIDs))
			}
			fmt.Println()
			return nil
		},
	}
}
