package queue

// StaffCancelledEvent is published by the staff app when an assigned staff
// member backs out of a job. It drives the cancellation cascade.
type StaffCancelledEvent struct {
	JobOfferID string `json:"job_offer_id"`
	StaffID    string `json:"staff_id"`
	ReasonCode string `json:"reason_code"`
	Notes      string `json:"notes,omitempty"`
	Locale     string `json:"locale,omitempty"`
}

// BookingCancelledEvent is published when a customer cancels an entire
// booking. Every child offer is cancelled and previous holders are notified.
type BookingCancelledEvent struct {
	BookingID string `json:"booking_id"`
	Locale    string `json:"locale,omitempty"`
}
