package db

import "errors"

var (
	// ErrOfferNotFound is returned when an offer id does not exist.
	ErrOfferNotFound = errors.New("job offer not found")

	// ErrStateConflict is returned when an expected-state precondition fails:
	// a second accept on an already-assigned offer, a cancel on an offer that
	// is no longer Assigned, or an accept racing a cancellation. It is a
	// business-rule violation, distinct from transient delivery failures, and
	// always propagates to the caller.
	ErrStateConflict = errors.New("job offer state conflict")
)
