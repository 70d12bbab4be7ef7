package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/siamclean/dispatch/pkg/core/model"
	"github.com/siamclean/dispatch/pkg/core/services"
)

// CreateOfferCmd creates the createOffer command
func CreateOfferCmd(app *AppContext) *cobra.Command {
	var (
		bookingID      string
		eligible       []string
		scheduledAt    string
		duration       int
		earnings       float64
		location       string
		groupSize      int
		recipientIndex int
		recipientName  string
	)

	cmd := &cobra.Command{
		Use:   "createOffer",
		Short: "Create a new open job offer and notify the eligible staff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := time.Parse(time.RFC3339, scheduledAt)
			if err != nil {
				return fmt.Errorf("--at must be RFC 3339: %w", err)
			}

			offer := &model.JobOffer{
				ParentBookingID:  bookingID,
				RecipientIndex:   recipientIndex,
				RecipientName:    recipientName,
				EligibleStaffIDs: eligible,
				ScheduledAt:      when,
				DurationMinutes:  duration,
				Earnings:         earnings,
				LocationInfo:     location,
				IsGroupBooking:   groupSize > 1,
				TotalGroupSize:   groupSize,
			}
			if err := app.Store.CreateOffer(app.Ctx, offer); err != nil {
				return err
			}

			sent := services.DispatchNewJob(app.Ctx, app.Store, app.Pusher, app.Composer, app.Logger,
				offer, offer.EligibleStaffIDs, app.DefaultLocale())

			fmt.Printf("\n✓ Offer created!\n\n")
			fmt.Printf("Offer ID:      %s\n", offer.ID)
			fmt.Printf("Booking:       %s\n", offer.ParentBookingID)
			fmt.Printf("Scheduled:     %s\n", offer.ScheduledAt.Format(time.RFC3339))
			fmt.Printf("Eligible:      %d staff\n", len(offer.EligibleStaffIDs))
			fmt.Printf("Notifications: sent=%t\n\n", sent)
			return nil
		},
	}

	cmd.Flags().StringVar(&bookingID, "booking", "", "Parent booking id (required)")
	cmd.Flags().StringSliceVar(&eligible, "eligible", nil, "Comma-separated eligible staff ids (required)")
	cmd.Flags().StringVar(&scheduledAt, "at", "", "Scheduled start, RFC 3339 (required)")
	cmd.Flags().IntVar(&duration, "duration", 0, "Duration in minutes (required)")
	cmd.Flags().Float64Var(&earnings, "earnings", 0, "Earnings in THB")
	cmd.Flags().StringVar(&location, "location", "", "Location info shown to staff")
	cmd.Flags().IntVar(&groupSize, "group-size", 1, "Total positions in the group booking")
	cmd.Flags().IntVar(&recipientIndex, "recipient-index", 0, "Position index within the booking")
	cmd.Flags().StringVar(&recipientName, "recipient-name", "", "Name of the person this job serves")
	cmd.MarkFlagRequired("booking")
	cmd.MarkFlagRequired("eligible")
	cmd.MarkFlagRequired("at")
	cmd.MarkFlagRequired("duration")

	return cmd
}
