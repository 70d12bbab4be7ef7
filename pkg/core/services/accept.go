package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// AcceptanceStore is the single conditional transition the acceptance gate
// needs from the job offer store.
type AcceptanceStore interface {
	AssignStaff(ctx context.Context, offerID, staffID string) error
}

// AcceptOffer awards the offer to the first accepting staff member. The
// store performs the Open -> Assigned transition atomically, so of two
// concurrent accepts exactly one succeeds and the other receives
// db.ErrStateConflict.
func AcceptOffer(ctx context.Context, store AcceptanceStore, logger *zap.Logger, offerID, staffID string) error {
	if offerID == "" {
		return validationErr("offerId", "must not be empty")
	}
	if staffID == "" {
		return validationErr("staffId", "must not be empty")
	}

	if err := store.AssignStaff(ctx, offerID, staffID); err != nil {
		return fmt.Errorf("failed to accept offer %s for staff %s: %w", offerID, staffID, err)
	}

	logger.Info("Offer accepted",
		zap.String("offer_id", offerID),
		zap.String("staff_id", staffID))
	return nil
}
