package model

import "time"

// ReasonCode enumerates the accepted cancellation reasons. The set is closed;
// OTHER additionally requires free-text notes.
type ReasonCode string

const (
	ReasonEmergency        ReasonCode = "EMERGENCY"
	ReasonSickness         ReasonCode = "SICKNESS"
	ReasonVehicleBreakdown ReasonCode = "VEHICLE_BREAKDOWN"
	ReasonScheduleConflict ReasonCode = "SCHEDULE_CONFLICT"
	ReasonPersonal         ReasonCode = "PERSONAL"
	ReasonOther            ReasonCode = "OTHER"
)

// ReasonCodes lists every accepted code, in display order.
var ReasonCodes = []ReasonCode{
	ReasonEmergency,
	ReasonSickness,
	ReasonVehicleBreakdown,
	ReasonScheduleConflict,
	ReasonPersonal,
	ReasonOther,
}

// Valid reports whether the code is one of the enumerated reasons.
func (r ReasonCode) Valid() bool {
	for _, known := range ReasonCodes {
		if r == known {
			return true
		}
	}
	return false
}

// RequiresNotes reports whether free-text notes are mandatory for this code.
func (r ReasonCode) RequiresNotes() bool {
	return r == ReasonOther
}

// CancellationEvent records a holder backing out of an offer. Events are
// append-only and never mutated after creation.
type CancellationEvent struct {
	ID         string
	JobOfferID string
	StaffID    string
	ReasonCode ReasonCode
	Notes      string
	Timestamp  time.Time
}
