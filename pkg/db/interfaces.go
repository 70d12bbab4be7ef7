package db

import (
	"context"
	"time"

	"github.com/siamclean/dispatch/pkg/core/model"
)

// OfferStore defines the job offer store the engine is wired against. All
// state transitions are compare-and-swap style: the expected current state is
// part of the statement, and a mismatch yields ErrStateConflict so that
// concurrent accepts, or an accept racing a cancellation, resolve with
// exactly one winner.
type OfferStore interface {
	// CreateOffer inserts a new Open offer and returns it with generated
	// fields populated.
	CreateOffer(ctx context.Context, offer *model.JobOffer) error

	// GetOffer fetches one offer by id, or ErrOfferNotFound.
	GetOffer(ctx context.Context, id string) (*model.JobOffer, error)

	// ListOpenOffers returns every offer currently in Open state.
	ListOpenOffers(ctx context.Context) ([]model.JobOffer, error)

	// ListByBooking returns all child offers sharing a parent booking id.
	ListByBooking(ctx context.Context, bookingID string) ([]model.JobOffer, error)

	// AssignStaff atomically awards an Open offer to staffID. The staff must
	// be in the eligible set. Returns ErrStateConflict when the offer is no
	// longer Open (first accept wins).
	AssignStaff(ctx context.Context, offerID, staffID string) error

	// TransitionStatus atomically moves an offer from one status to another,
	// failing with ErrStateConflict on a state mismatch.
	TransitionStatus(ctx context.Context, offerID string, from, to model.OfferStatus) error

	// CancelAndReplace closes an Assigned offer held by ev.StaffID, appends
	// the cancellation event, and creates the replacement Open offer whose
	// eligible set excludes the canceller, all in one transaction. Either
	// everything happens or nothing does. Returns the replacement offer id.
	CancelAndReplace(ctx context.Context, ev model.CancellationEvent) (string, error)

	// CancelBooking cancels every non-terminal child of a booking without
	// creating replacements (customer-initiated cancellation). It returns
	// the children that had an assigned holder so they can be notified.
	CancelBooking(ctx context.Context, bookingID string) ([]model.JobOffer, error)

	// BumpEscalation records that an escalation at newLevel was dispatched.
	// The level only moves forward; a stale bump (level already >= newLevel)
	// returns ErrStateConflict.
	BumpEscalation(ctx context.Context, offerID string, newLevel int, at time.Time) error
}

// EscalationLease serialises escalation passes per offer. Acquire returns
// false when another pass currently holds the lease for the offer.
type EscalationLease interface {
	Acquire(ctx context.Context, offerID string) (bool, error)
	Release(ctx context.Context, offerID string) error
}
