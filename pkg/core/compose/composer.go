// Package compose renders notification content for dispatch events. Every
// function is pure: the same event data and locale always produce the same
// rendered message, which is what makes delivery idempotence testable.
package compose

import (
	"fmt"
	"strings"
	"time"

	"github.com/siamclean/dispatch/pkg/core/model"
)

// ChildJob describes one child offer of a group booking for message
// rendering. RecipientName is the customer-facing name of the person the
// child job serves.
type ChildJob struct {
	JobID           string
	RecipientName   string
	DurationMinutes int
	Earnings        float64
}

// JobData is the structured event data the composer renders from. It carries
// no behaviour; callers assemble it from the offer and booking records.
type JobData struct {
	JobID           string
	BookingID       string
	ScheduledAt     time.Time
	DurationMinutes int
	Earnings        float64
	Location        string
	IsGroupBooking  bool
	TotalGroupSize  int
	Children        []ChildJob
}

// FillRatio reports group-booking staffing progress for operator messages.
type FillRatio struct {
	Assigned int
	Total    int
}

// Composer renders notification messages. It holds only the app base URL
// used for deep links and is safe for concurrent use.
type Composer struct {
	appBaseURL string
}

// NewComposer returns a Composer that builds deep links under appBaseURL.
func NewComposer(appBaseURL string) *Composer {
	return &Composer{appBaseURL: strings.TrimRight(appBaseURL, "/")}
}

// DeepLink returns the in-app URL for a specific job, or the staff job list
// when no single job id is resolvable.
func (c *Composer) DeepLink(jobID string) string {
	if jobID == "" {
		return c.appBaseURL + "/staff/jobs"
	}
	return c.appBaseURL + "/staff/jobs/" + jobID
}

// NewJob renders the fresh-offer fan-out message.
func (c *Composer) NewJob(data JobData, loc model.Locale) model.NotificationMessage {
	cat := catalogFor(loc)
	return c.render(model.EventNewJob, loc, cat.newJobSubject, c.jobLines(cat, data))
}

// JobReAvailable renders the re-offer message sent after a holder cancels.
func (c *Composer) JobReAvailable(data JobData, loc model.Locale) model.NotificationMessage {
	cat := catalogFor(loc)
	return c.render(model.EventJobReAvailable, loc, cat.reAvailableSubject, c.jobLines(cat, data))
}

// JobCancelledToAdmin renders the operator-facing cancellation notice. fill
// is nil for non-group bookings; when present a staffing-progress line is
// appended.
func (c *Composer) JobCancelledToAdmin(data JobData, ev model.CancellationEvent, fill *FillRatio, loc model.Locale) model.NotificationMessage {
	cat := catalogFor(loc)
	lines := []string{
		fmt.Sprintf(cat.cancelledByFmt, ev.StaffID),
		fmt.Sprintf("%s: %s", cat.reasonLabel, ev.ReasonCode),
	}
	if ev.Notes != "" {
		lines = append(lines, fmt.Sprintf("%s: %s", cat.notesLabel, ev.Notes))
	}
	lines = append(lines, c.jobLines(cat, data)...)
	if fill != nil {
		lines = append(lines, fmt.Sprintf(cat.fillRatioLine, fill.Assigned, fill.Total))
	}
	return c.render(model.EventJobCancelledToAdmin, loc, cat.cancelledToAdminSubject, lines)
}

// BookingCancelledToStaff renders the notice sent to assigned staff when the
// customer cancels the whole booking.
func (c *Composer) BookingCancelledToStaff(data JobData, loc model.Locale) model.NotificationMessage {
	cat := catalogFor(loc)
	lines := []string{
		fmt.Sprintf("%s: %s", cat.scheduledLabel, data.ScheduledAt.Format("2006-01-02 15:04")),
		fmt.Sprintf("%s: %s", cat.locationLabel, data.Location),
		cat.viewJobsLabel + ": " + c.DeepLink(""),
	}
	return c.render(model.EventBookingCancelledToStaff, loc, cat.bookingCancelledSubject, lines)
}

// JobReminder renders the pre-start reminder. The subject carries the coarse
// time-until label (remainder truncated).
func (c *Composer) JobReminder(data JobData, minutesBefore int, loc model.Locale) model.NotificationMessage {
	cat := catalogFor(loc)
	subject := fmt.Sprintf(cat.reminderSubject, TimeUntilLabel(minutesBefore, loc))
	return c.render(model.EventJobReminder, loc, subject, c.jobLines(cat, data))
}

// JobEscalation renders the urgency nudge for an offer that has stayed Open
// past a threshold. The body leads with the precise time-pending label.
func (c *Composer) JobEscalation(data JobData, minutesPending int, loc model.Locale) model.NotificationMessage {
	cat := catalogFor(loc)
	lines := append(
		[]string{fmt.Sprintf(cat.escalationPendingLine, TimePendingLabel(minutesPending, loc))},
		c.jobLines(cat, data)...,
	)
	return c.render(model.EventJobEscalation, loc, cat.escalationSubject, lines)
}

// jobLines renders the shared job-detail block. Group bookings enumerate
// each child with its own name, duration, earnings and deep link; single
// bookings emit one deep link to the job (or the job list when the id is
// unknown).
func (c *Composer) jobLines(cat catalog, data JobData) []string {
	lines := []string{
		fmt.Sprintf("%s: %s", cat.scheduledLabel, data.ScheduledAt.Format("2006-01-02 15:04")),
		fmt.Sprintf("%s: %s", cat.locationLabel, data.Location),
	}

	if data.IsGroupBooking && len(data.Children) > 0 {
		for _, child := range data.Children {
			lines = append(lines, fmt.Sprintf(cat.groupJobLine, child.RecipientName, child.DurationMinutes, child.Earnings))
			if child.JobID != "" {
				lines = append(lines, cat.viewJobLabel+": "+c.DeepLink(child.JobID))
			}
		}
		return lines
	}

	lines = append(lines,
		fmt.Sprintf("%s: %d %s", cat.durationLabel, data.DurationMinutes, cat.minutesLabel),
		fmt.Sprintf("%s: %.2f %s", cat.earningsLabel, data.Earnings, cat.bahtLabel),
	)
	if data.JobID != "" {
		lines = append(lines, cat.viewJobLabel+": "+c.DeepLink(data.JobID))
	} else {
		lines = append(lines, cat.viewJobsLabel+": "+c.DeepLink(""))
	}
	return lines
}

func (c *Composer) render(event model.EventType, loc model.Locale, subject string, lines []string) model.NotificationMessage {
	var html strings.Builder
	for _, line := range lines {
		html.WriteString("<p>")
		html.WriteString(line)
		html.WriteString("</p>")
	}
	return model.NotificationMessage{
		EventType: event,
		Locale:    loc,
		Subject:   subject,
		Text:      subject + "\n" + strings.Join(lines, "\n"),
		HTML:      "<p><strong>" + subject + "</strong></p>" + html.String(),
	}
}
