package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/siamclean/dispatch/pkg/core/compose"
	"github.com/siamclean/dispatch/pkg/core/model"
)

// CascadeStore defines the store operations the cancellation cascade needs.
// CancelAndReplace is the one multi-row transactional unit in the engine:
// close old, append event, open replacement — all or nothing.
type CascadeStore interface {
	GetOffer(ctx context.Context, id string) (*model.JobOffer, error)
	CancelAndReplace(ctx context.Context, ev model.CancellationEvent) (string, error)
	ListByBooking(ctx context.Context, bookingID string) ([]model.JobOffer, error)
}

// AuditMailer sends the cancellation audit email to the operations inbox.
type AuditMailer interface {
	SendCancellationAudit(ev model.CancellationEvent, offer model.JobOffer) error
}

// DeliveryOutcome records the per-recipient result of a cascade push, so
// alerting and tests can see exactly which recipients failed rather than a
// single collapsed boolean.
type DeliveryOutcome struct {
	RecipientID string
	Success     bool
	Error       string
}

// CascadeResult reports what the cancellation cascade did. The state
// transition is authoritative: NewOfferID is always set on success even when
// every notification failed.
type CascadeResult struct {
	NewOfferID        string
	NotificationsSent bool
	StaffOutcomes     []DeliveryOutcome
	OperatorOutcomes  []DeliveryOutcome
}

// CascadeParams carries the cancellation request plus dispatch context.
type CascadeParams struct {
	OfferID     string
	StaffID     string
	Reason      model.ReasonCode
	Notes       string
	Locale      model.Locale
	OperatorIDs []string
}

// Cancel runs the cancellation cascade: validate, atomically close the old
// offer and open the replacement excluding the canceller, re-dispatch to the
// remaining eligible staff with individual pushes, and notify operators.
//
// Re-dispatch deliberately uses PushOne per recipient instead of a
// multicast: cancellation re-offers are higher priority than fresh offers,
// and the per-recipient outcome is kept for reliability auditing. Delivery
// failures never roll back the state transition.
func Cancel(
	ctx context.Context,
	store CascadeStore,
	pusher Pusher,
	mailer AuditMailer,
	composer *compose.Composer,
	logger *zap.Logger,
	params CascadeParams,
) (*CascadeResult, error) {
	if params.OfferID == "" {
		return nil, validationErr("offerId", "must not be empty")
	}
	if params.StaffID == "" {
		return nil, validationErr("staffId", "must not be empty")
	}
	if !params.Reason.Valid() {
		return nil, validationErr("reasonCode", fmt.Sprintf("unknown reason code %q", params.Reason))
	}
	if params.Reason.RequiresNotes() && params.Notes == "" {
		return nil, validationErr("notes", "notes are required when reasonCode is OTHER")
	}

	logger.Debug("Starting cancellation cascade",
		zap.String("offer_id", params.OfferID),
		zap.String("staff_id", params.StaffID),
		zap.String("reason", string(params.Reason)))

	offer, err := store.GetOffer(ctx, params.OfferID)
	if err != nil {
		return nil, fmt.Errorf("failed to load offer %s: %w", params.OfferID, err)
	}
	// A cancellation must come from the holder. Any other status falls
	// through to the conditional update below, which classifies it as a
	// state conflict.
	if offer.Status == model.StatusAssigned && !offer.IsHeldBy(params.StaffID) {
		return nil, validationErr("staffId", fmt.Sprintf("staff %s does not hold offer %s", params.StaffID, params.OfferID))
	}

	ev := model.CancellationEvent{
		ID:         uuid.New().String(),
		JobOfferID: params.OfferID,
		StaffID:    params.StaffID,
		ReasonCode: params.Reason,
		Notes:      params.Notes,
		Timestamp:  time.Now().UTC(),
	}

	newOfferID, err := store.CancelAndReplace(ctx, ev)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel offer %s: %w", params.OfferID, err)
	}

	logger.Info("Offer cancelled and replaced",
		zap.String("offer_id", params.OfferID),
		zap.String("new_offer_id", newOfferID),
		zap.String("staff_id", params.StaffID),
		zap.String("reason", string(params.Reason)))

	result := &CascadeResult{NewOfferID: newOfferID}

	// Re-dispatch to the remaining eligible set. The message links to the
	// replacement offer, which is the one staff can now accept. Group
	// bookings enumerate the surviving sibling positions and carry the
	// staffing ratio for operators.
	data := jobDataFromOffer(offer)
	data.JobID = newOfferID
	var fill *compose.FillRatio
	if offer.IsGroupBooking {
		children, err := store.ListByBooking(ctx, offer.ParentBookingID)
		if err != nil {
			logger.Warn("Failed to load group booking children",
				zap.String("booking_id", offer.ParentBookingID),
				zap.Error(err))
		} else {
			data.Children = childJobs(children)
			agg := model.NewGroupBookingAggregate(offer.ParentBookingID, children)
			fill = &compose.FillRatio{Assigned: agg.AssignedCount(), Total: agg.TotalGroupSize()}
		}
	}
	staffMsg := composer.JobReAvailable(data, params.Locale)

	for _, recipientID := range dedupe(offer.EligibleWithout(params.StaffID)) {
		ok := pusher.PushOne(ctx, recipientID, staffMsg)
		result.StaffOutcomes = append(result.StaffOutcomes, outcome(recipientID, ok))
		if !ok {
			logger.Warn("Failed to deliver re-offer",
				zap.String("new_offer_id", newOfferID),
				zap.String("recipient_id", recipientID))
		}
	}

	adminMsg := composer.JobCancelledToAdmin(data, ev, fill, params.Locale)

	for _, operatorID := range dedupe(params.OperatorIDs) {
		ok := pusher.PushOne(ctx, operatorID, adminMsg)
		result.OperatorOutcomes = append(result.OperatorOutcomes, outcome(operatorID, ok))
		if !ok {
			logger.Warn("Failed to notify operator",
				zap.String("offer_id", params.OfferID),
				zap.String("operator_id", operatorID))
		}
	}

	if mailer != nil {
		if err := mailer.SendCancellationAudit(ev, *offer); err != nil {
			logger.Warn("Failed to send cancellation audit email",
				zap.String("offer_id", params.OfferID),
				zap.Error(err))
		}
	}

	result.NotificationsSent = allDelivered(result.StaffOutcomes) && allDelivered(result.OperatorOutcomes)

	logger.Debug("Cancellation cascade completed",
		zap.String("offer_id", params.OfferID),
		zap.String("new_offer_id", newOfferID),
		zap.Bool("notifications_sent", result.NotificationsSent))
	return result, nil
}

func outcome(recipientID string, ok bool) DeliveryOutcome {
	o := DeliveryOutcome{RecipientID: recipientID, Success: ok}
	if !ok {
		o.Error = "delivery failed"
	}
	return o
}

func allDelivered(outcomes []DeliveryOutcome) bool {
	for _, o := range outcomes {
		if !o.Success {
			return false
		}
	}
	return true
}
