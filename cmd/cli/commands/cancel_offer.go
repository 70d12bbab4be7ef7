package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siamclean/dispatch/pkg/core/model"
	"github.com/siamclean/dispatch/pkg/core/services"
)

// CancelOfferCmd creates the cancelOffer command
func CancelOfferCmd(app *AppContext) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "cancelOffer <offer_id> <staff_id> <reason_code>",
		Short: "Cancel an assigned offer and run the replacement cascade",
		Long: `Cancel an assigned offer on behalf of its holder. The offer is closed, a
replacement is opened for the remaining eligible staff, and staff and
operators are notified. Reason codes: EMERGENCY, SICKNESS,
VEHICLE_BREAKDOWN, SCHEDULE_CONFLICT, PERSONAL, OTHER (requires --notes).`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.Cancel(app.Ctx, app.Store, app.Pusher, app.Mailer, app.Composer, app.Logger,
				services.CascadeParams{
					OfferID:     args[0],
					StaffID:     args[1],
					Reason:      model.ReasonCode(args[2]),
					Notes:       notes,
					Locale:      app.DefaultLocale(),
					OperatorIDs: app.Cfg.OperatorRecipientIDs,
				})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Offer cancelled and replaced!\n\n")
			fmt.Printf("Replacement offer: %s\n", result.NewOfferID)
			fmt.Printf("All notified:      %t\n\n", result.NotificationsSent)

			printOutcomes("Staff", result.StaffOutcomes)
			printOutcomes("Operators", result.OperatorOutcomes)
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Free-text notes (required for reason OTHER)")
	return cmd
}

func printOutcomes(label string, outcomes []services.DeliveryOutcome) {
	if len(outcomes) == 0 {
		return
	}
	fmt.Printf("%s notified:\n", label)
	for _, o := range outcomes {
		mark := "✓"
		if !o.Success {
			mark = "✗"
		}
		fmt.Printf("  %s %s", mark, o.RecipientID)
		if o.Error != "" {
			fmt.Printf(" (%s)", o.Error)
		}
		fmt.Println()
	}
	fmt.Println()
}
