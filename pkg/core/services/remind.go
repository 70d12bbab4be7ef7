package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/siamclean/dispatch/pkg/core/compose"
	"github.com/siamclean/dispatch/pkg/core/model"
	"github.com/siamclean/dispatch/pkg/db"
)

// ReminderStore defines the store operations the reminder needs.
type ReminderStore interface {
	GetOffer(ctx context.Context, id string) (*model.JobOffer, error)
}

// Remind pushes an upcoming-job reminder to the staff member holding the
// offer, minutesBefore its scheduled start. Only Assigned and InProgress
// offers have a holder to remind; anything else is a state conflict.
//
// The returned boolean is the adapter's delivery result.
func Remind(
	ctx context.Context,
	store ReminderStore,
	pusher Pusher,
	composer *compose.Composer,
	logger *zap.Logger,
	offerID string,
	minutesBefore int,
	locale model.Locale,
) (bool, error) {
	if offerID == "" {
		return false, validationErr("offerId", "must not be empty")
	}
	if minutesBefore < 0 {
		return false, validationErr("minutesBefore", "must not be negative")
	}

	offer, err := store.GetOffer(ctx, offerID)
	if err != nil {
		return false, fmt.Errorf("failed to load offer %s: %w", offerID, err)
	}
	if offer.Status != model.StatusAssigned && offer.Status != model.StatusInProgress {
		return false, fmt.Errorf("offer %s is %s and has no holder to remind: %w",
			offerID, offer.Status, db.ErrStateConflict)
	}
	holder := offer.Holder()
	if holder == "" {
		return false, fmt.Errorf("offer %s has no holder to remind: %w", offerID, db.ErrStateConflict)
	}

	msg := composer.JobReminder(jobDataFromOffer(offer), minutesBefore, locale)
	ok := pusher.PushOne(ctx, holder, msg)

	logger.Info("Reminder sent",
		zap.String("offer_id", offerID),
		zap.String("staff_id", holder),
		zap.Int("minutes_before", minutesBefore),
		zap.Bool("delivery_ok", ok))
	return ok, nil
}
