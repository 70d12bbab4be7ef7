package model

import "time"

// OfferStatus is the lifecycle state of a JobOffer.
type OfferStatus string

const (
	StatusOpen       OfferStatus = "OPEN"
	StatusAssigned   OfferStatus = "ASSIGNED"
	StatusInProgress OfferStatus = "IN_PROGRESS"
	StatusCompleted  OfferStatus = "COMPLETED"
	StatusCancelled  OfferStatus = "CANCELLED"
)

// JobOffer represents one assignable unit of work. An offer is created Open
// by the booking flow, awarded to exactly one staff member by the acceptance
// gate, and replaced (never reopened in place) when its holder cancels.
type JobOffer struct {
	ID               string
	ParentBookingID  string
	RecipientIndex   int    // 0-based position within a multi-recipient booking
	RecipientName    string // customer-facing name of the person this job serves
	Status           OfferStatus
	EligibleStaffIDs []string
	AssignedStaffID  *string // non-nil only while Status is Assigned or InProgress
	ScheduledAt      time.Time
	DurationMinutes  int
	Earnings         float64 // THB
	LocationInfo     string
	IsGroupBooking   bool
	TotalGroupSize   int
	EscalationLevel  int
	LastEscalatedAt  *time.Time
	OpenedAt         time.Time // when the offer entered Open, drives escalation timing
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Holder returns the assigned staff ID, or "" when the offer is unassigned.
func (o *JobOffer) Holder() string {
	if o.AssignedStaffID == nil {
		return ""
	}
	return *o.AssignedStaffID
}

// IsHeldBy reports whether staffID currently holds the offer.
func (o *JobOffer) IsHeldBy(staffID string) bool {
	return o.AssignedStaffID != nil && *o.AssignedStaffID == staffID
}

// Staffed reports whether the offer has reached Assigned or a later
// non-cancelled state.
func (o *JobOffer) Staffed() bool {
	switch o.Status {
	case StatusAssigned, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// EligibleWithout returns a copy of the eligible set with staffID removed.
// Order is preserved.
func (o *JobOffer) EligibleWithout(staffID string) []string {
	remaining := make([]string, 0, len(o.EligibleStaffIDs))
	for _, id := range o.EligibleStaffIDs {
		if id != staffID {
			remaining = append(remaining, id)
		}
	}
	return remaining
}
