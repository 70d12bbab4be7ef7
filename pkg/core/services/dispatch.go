// Package services implements the dispatch engine: new-job fan-out, the
// acceptance gate, the cancellation cascade and the escalation scheduler.
// Each service is a function taking the narrow collaborator interfaces it
// needs, so tests can substitute fakes for the channel adapter and the store.
package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/siamclean/dispatch/pkg/core/compose"
	"github.com/siamclean/dispatch/pkg/core/model"
)

// Pusher is the delivery channel adapter. Both operations absorb transient
// delivery failures and report them as booleans; they never return errors.
type Pusher interface {
	PushOne(ctx context.Context, recipientID string, msg model.NotificationMessage) bool
	Multicast(ctx context.Context, recipientIDs []string, msg model.NotificationMessage) bool
}

// DispatchStore defines the store operations new-job fan-out needs: loading
// the sibling offers that group-booking messages enumerate.
type DispatchStore interface {
	ListByBooking(ctx context.Context, bookingID string) ([]model.JobOffer, error)
}

// DispatchNewJob fans the new-job offer out to the eligible recipient set in
// one multicast. There is no per-recipient retry: first accept wins anyway,
// so the booking flow decides whether a failed fan-out is worth re-triggering.
// Returns the adapter's aggregate delivery boolean.
func DispatchNewJob(
	ctx context.Context,
	store DispatchStore,
	pusher Pusher,
	composer *compose.Composer,
	logger *zap.Logger,
	offer *model.JobOffer,
	eligibleIDs []string,
	locale model.Locale,
) bool {
	recipients := dedupe(eligibleIDs)
	if len(recipients) == 0 {
		logger.Info("No eligible recipients for new job, skipping dispatch",
			zap.String("offer_id", offer.ID))
		return true
	}

	msg := composer.NewJob(groupJobData(ctx, store, logger, offer), locale)
	ok := pusher.Multicast(ctx, recipients, msg)

	logger.Info("New job dispatched",
		zap.String("offer_id", offer.ID),
		zap.String("booking_id", offer.ParentBookingID),
		zap.Int("recipient_count", len(recipients)),
		zap.Bool("delivery_ok", ok))
	return ok
}

// dedupe removes duplicate recipient ids while preserving first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// jobDataFromOffer maps an offer to the composer's structured event data.
func jobDataFromOffer(offer *model.JobOffer) compose.JobData {
	return compose.JobData{
		JobID:           offer.ID,
		BookingID:       offer.ParentBookingID,
		ScheduledAt:     offer.ScheduledAt,
		DurationMinutes: offer.DurationMinutes,
		Earnings:        offer.Earnings,
		Location:        offer.LocationInfo,
		IsGroupBooking:  offer.IsGroupBooking,
		TotalGroupSize:  offer.TotalGroupSize,
	}
}

// groupJobData builds the offer's event data and, for group bookings, loads
// the sibling offers so the message enumerates every position. A listing
// failure is logged and the message degrades to the single-job block rather
// than blocking dispatch.
func groupJobData(ctx context.Context, store DispatchStore, logger *zap.Logger, offer *model.JobOffer) compose.JobData {
	data := jobDataFromOffer(offer)
	if !offer.IsGroupBooking {
		return data
	}
	siblings, err := store.ListByBooking(ctx, offer.ParentBookingID)
	if err != nil {
		logger.Warn("Failed to load group booking children",
			zap.String("booking_id", offer.ParentBookingID),
			zap.Error(err))
		return data
	}
	data.Children = childJobs(siblings)
	return data
}

// childJobs maps a booking's non-cancelled child offers for rendering.
func childJobs(offers []model.JobOffer) []compose.ChildJob {
	children := make([]compose.ChildJob, 0, len(offers))
	for i := range offers {
		o := &offers[i]
		if o.Status == model.StatusCancelled {
			continue
		}
		children = append(children, compose.ChildJob{
			JobID:           o.ID,
			RecipientName:   o.RecipientName,
			DurationMinutes: o.DurationMinutes,
			Earnings:        o.Earnings,
		})
	}
	return children
}
