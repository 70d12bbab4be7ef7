package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/siamclean/dispatch/pkg/core/compose"
	"github.com/siamclean/dispatch/pkg/core/model"
	"github.com/siamclean/dispatch/pkg/db"
)

// EscalationStore defines the store operations the escalation scheduler
// needs.
type EscalationStore interface {
	GetOffer(ctx context.Context, id string) (*model.JobOffer, error)
	ListOpenOffers(ctx context.Context) ([]model.JobOffer, error)
	BumpEscalation(ctx context.Context, offerID string, newLevel int, at time.Time) error
}

// Lease serialises escalation work per offer so two overlapping scheduler
// passes never double-notify the same job.
type Lease interface {
	Acquire(ctx context.Context, offerID string) (bool, error)
	Release(ctx context.Context, offerID string) error
}

// EscalationPolicy controls when open offers are re-notified.
type EscalationPolicy struct {
	// Thresholds holds ascending pending-minute marks; crossing
	// Thresholds[i] makes the offer due for escalation level i+1.
	Thresholds []int

	// QuietRule optionally marks recurring windows during which no
	// escalations are sent (e.g. nightly). Each occurrence opens a window of
	// QuietWindow length.
	QuietRule   *rrule.RRule
	QuietWindow time.Duration

	Locale model.Locale
}

// DueLevel returns the escalation level an offer with the given pending
// minutes should be at under the policy.
func (p EscalationPolicy) DueLevel(minutesPending int) int {
	level := 0
	for _, threshold := range p.Thresholds {
		if minutesPending >= threshold {
			level++
		}
	}
	return level
}

// InQuietWindow reports whether now falls inside a quiet window.
func (p EscalationPolicy) InQuietWindow(now time.Time) bool {
	if p.QuietRule == nil || p.QuietWindow <= 0 {
		return false
	}
	return len(p.QuietRule.Between(now.Add(-p.QuietWindow), now, true)) > 0
}

// Escalate composes the urgency message for an offer that has been pending
// for minutesPending and multicasts it to the eligible set. It re-checks
// that the offer is still Open immediately before dispatch: a job claimed
// between poll ticks must not be escalated, and attempting it is a state
// conflict like any other failed precondition.
//
// The returned boolean is the adapter's aggregate delivery result.
func Escalate(
	ctx context.Context,
	store EscalationStore,
	pusher Pusher,
	composer *compose.Composer,
	logger *zap.Logger,
	offerID string,
	minutesPending int,
	locale model.Locale,
) (bool, error) {
	if offerID == "" {
		return false, validationErr("offerId", "must not be empty")
	}
	if minutesPending < 0 {
		return false, validationErr("minutesPending", "must not be negative")
	}

	offer, err := store.GetOffer(ctx, offerID)
	if err != nil {
		return false, fmt.Errorf("failed to load offer %s: %w", offerID, err)
	}
	if offer.Status != model.StatusOpen {
		return false, fmt.Errorf("offer %s is %s, not open: %w", offerID, offer.Status, db.ErrStateConflict)
	}

	recipients := dedupe(offer.EligibleStaffIDs)
	if len(recipients) == 0 {
		logger.Info("Open offer has no eligible recipients to escalate to",
			zap.String("offer_id", offerID))
		return true, nil
	}

	msg := composer.JobEscalation(jobDataFromOffer(offer), minutesPending, locale)
	ok := pusher.Multicast(ctx, recipients, msg)

	logger.Info("Offer escalated",
		zap.String("offer_id", offerID),
		zap.Int("minutes_pending", minutesPending),
		zap.Int("recipient_count", len(recipients)),
		zap.Bool("delivery_ok", ok))
	return ok, nil
}

// EscalationPassResult summarises one scheduler pass.
type EscalationPassResult struct {
	Scanned   int
	Escalated int
	Skipped   int
	Failures  int
}

// RunEscalationPass scans all open offers and escalates those whose pending
// time has crossed a threshold their escalation level has not caught up
// with. A per-offer lease keeps concurrent passes from double-notifying; the
// level bump in the store keeps successive passes from re-sending the same
// level even if a lease expires.
func RunEscalationPass(
	ctx context.Context,
	store EscalationStore,
	lease Lease,
	pusher Pusher,
	composer *compose.Composer,
	logger *zap.Logger,
	policy EscalationPolicy,
	now time.Time,
) (*EscalationPassResult, error) {
	result := &EscalationPassResult{}

	if policy.InQuietWindow(now) {
		logger.Info("Escalation pass skipped: inside quiet window")
		return result, nil
	}

	offers, err := store.ListOpenOffers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open offers: %w", err)
	}
	result.Scanned = len(offers)

	for i := range offers {
		offer := &offers[i]
		minutesPending := int(now.Sub(offer.OpenedAt).Minutes())
		dueLevel := policy.DueLevel(minutesPending)
		if dueLevel <= offer.EscalationLevel {
			result.Skipped++
			continue
		}

		acquired, err := lease.Acquire(ctx, offer.ID)
		if err != nil {
			logger.Warn("Failed to acquire escalation lease",
				zap.String("offer_id", offer.ID),
				zap.Error(err))
			result.Failures++
			continue
		}
		if !acquired {
			logger.Debug("Escalation lease held elsewhere, skipping offer",
				zap.String("offer_id", offer.ID))
			result.Skipped++
			continue
		}

		delivered, err := Escalate(ctx, store, pusher, composer, logger, offer.ID, minutesPending, policy.Locale)
		switch {
		case errors.Is(err, db.ErrStateConflict):
			// Claimed between the listing and the dispatch; nothing to do.
			result.Skipped++
		case err != nil:
			logger.Warn("Escalation failed",
				zap.String("offer_id", offer.ID),
				zap.Error(err))
			result.Failures++
		default:
			// The level advances whenever a dispatch was attempted while the
			// offer was Open. Partial delivery failure is not retried at the
			// same level: re-sending is what the next threshold is for.
			if bumpErr := store.BumpEscalation(ctx, offer.ID, dueLevel, now); bumpErr != nil && !errors.Is(bumpErr, db.ErrStateConflict) {
				logger.Warn("Failed to record escalation level",
					zap.String("offer_id", offer.ID),
					zap.Error(bumpErr))
			}
			result.Escalated++
			if !delivered {
				result.Failures++
			}
		}

		if releaseErr := lease.Release(ctx, offer.ID); releaseErr != nil {
			logger.Warn("Failed to release escalation lease",
				zap.String("offer_id", offer.ID),
				zap.Error(releaseErr))
		}
	}

	logger.Info("Escalation pass completed",
		zap.Int("scanned", result.Scanned),
		zap.Int("escalated", result.Escalated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failures", result.Failures))
	return result, nil
}
