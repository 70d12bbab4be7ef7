package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/siamclean/dispatch/pkg/core/compose"
	"github.com/siamclean/dispatch/pkg/core/model"
)

// BookingStore defines the store operations for customer-initiated booking
// cancellation.
type BookingStore interface {
	CancelBooking(ctx context.Context, bookingID string) ([]model.JobOffer, error)
}

// CancelBooking handles the reverse direction of the cascade: the customer
// cancels the whole booking, every non-terminal child offer is closed
// without replacement, and each staff member who held a child is notified.
// Returns the per-holder delivery outcomes.
func CancelBooking(
	ctx context.Context,
	store BookingStore,
	pusher Pusher,
	composer *compose.Composer,
	logger *zap.Logger,
	bookingID string,
	locale model.Locale,
) ([]DeliveryOutcome, error) {
	if bookingID == "" {
		return nil, validationErr("bookingId", "must not be empty")
	}

	held, err := store.CancelBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking %s: %w", bookingID, err)
	}

	logger.Info("Booking cancelled",
		zap.String("booking_id", bookingID),
		zap.Int("held_offers", len(held)))

	outcomes := make([]DeliveryOutcome, 0, len(held))
	for i := range held {
		offer := &held[i]
		holder := offer.Holder()
		if holder == "" {
			continue
		}
		msg := composer.BookingCancelledToStaff(jobDataFromOffer(offer), locale)
		ok := pusher.PushOne(ctx, holder, msg)
		outcomes = append(outcomes, outcome(holder, ok))
		if !ok {
			logger.Warn("Failed to notify staff of booking cancellation",
				zap.String("booking_id", bookingID),
				zap.String("offer_id", offer.ID),
				zap.String("staff_id", holder))
		}
	}
	return outcomes, nil
}
