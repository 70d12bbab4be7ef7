package model

import "time"

// EventType identifies which composer produced a notification.
type EventType string

const (
	EventNewJob                  EventType = "NEW_JOB"
	EventJobReAvailable          EventType = "JOB_RE_AVAILABLE"
	EventJobCancelledToAdmin     EventType = "JOB_CANCELLED_TO_ADMIN"
	EventBookingCancelledToStaff EventType = "BOOKING_CANCELLED_TO_STAFF"
	EventJobReminder             EventType = "JOB_REMINDER"
	EventJobEscalation           EventType = "JOB_ESCALATION"
)

// Locale selects the rendered language of a notification.
type Locale string

const (
	LocaleThai    Locale = "th"
	LocaleEnglish Locale = "en"
	LocaleChinese Locale = "cn"
)

// ParseLocale normalises a locale string, defaulting to English for any
// unrecognised value.
func ParseLocale(s string) Locale {
	switch Locale(s) {
	case LocaleThai, LocaleEnglish, LocaleChinese:
		return Locale(s)
	}
	return LocaleEnglish
}

// NotificationMessage is a rendered message produced by the composer and
// consumed by the delivery channel adapter. It is not a source of truth for
// job state.
type NotificationMessage struct {
	EventType       EventType
	Locale          Locale
	RecipientIDs    []string
	Subject         string
	HTML            string
	Text            string
	SentAt          time.Time
	DeliverySuccess bool
}
