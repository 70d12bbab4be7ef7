package compose

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siamclean/dispatch/pkg/core/model"
)

const baseURL = "https://app.siamclean.example"

func singleJob() JobData {
	return JobData{
		JobID:           "job-1",
		BookingID:       "booking-1",
		ScheduledAt:     time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC),
		DurationMinutes: 180,
		Earnings:        950,
		Location:        "Sukhumvit 24, Bangkok",
	}
}

func groupJob() JobData {
	data := singleJob()
	data.IsGroupBooking = true
	data.TotalGroupSize = 2
	data.Children = []ChildJob{
		{JobID: "job-1", RecipientName: "Khun Malee", DurationMinutes: 180, Earnings: 950},
		{JobID: "job-2", RecipientName: "Khun Somchai", DurationMinutes: 120, Earnings: 700},
	}
	return data
}

func TestNewJob_SingleBookingHasOneDeepLink(t *testing.T) {
	c := NewComposer(baseURL)

	msg := c.NewJob(singleJob(), model.LocaleEnglish)

	assert.Equal(t, model.EventNewJob, msg.EventType)
	assert.Equal(t, "New job available", msg.Subject)
	assert.Contains(t, msg.Text, baseURL+"/staff/jobs/job-1")
	assert.NotContains(t, msg.Text, baseURL+"/staff/jobs\n") // no list fallback when the id is known
	assert.Contains(t, msg.Text, "950.00 THB")
	assert.Contains(t, msg.Text, "180 minutes")
}

func TestNewJob_UnknownJobIDFallsBackToJobList(t *testing.T) {
	c := NewComposer(baseURL + "/") // trailing slash must not double up
	data := singleJob()
	data.JobID = ""

	msg := c.NewJob(data, model.LocaleEnglish)

	assert.Contains(t, msg.Text, baseURL+"/staff/jobs")
	assert.NotContains(t, msg.Text, baseURL+"//staff/jobs")
}

func TestNewJob_GroupBookingEnumeratesChildren(t *testing.T) {
	c := NewComposer(baseURL)

	msg := c.NewJob(groupJob(), model.LocaleEnglish)

	assert.Contains(t, msg.Text, "Khun Malee — 180 minutes, 950.00 THB")
	assert.Contains(t, msg.Text, "Khun Somchai — 120 minutes, 700.00 THB")
	assert.Contains(t, msg.Text, baseURL+"/staff/jobs/job-1")
	assert.Contains(t, msg.Text, baseURL+"/staff/jobs/job-2")
}

func TestComposerIsDeterministic(t *testing.T) {
	c := NewComposer(baseURL)

	first := c.JobEscalation(groupJob(), 75, model.LocaleThai)
	second := c.JobEscalation(groupJob(), 75, model.LocaleThai)

	assert.Equal(t, first, second)
}

func TestJobCancelledToAdmin_IncludesReasonAndNotes(t *testing.T) {
	c := NewComposer(baseURL)
	ev := model.CancellationEvent{
		JobOfferID: "job-1",
		StaffID:    "staff-a",
		ReasonCode: model.ReasonOther,
		Notes:      "family matter",
	}

	msg := c.JobCancelledToAdmin(singleJob(), ev, nil, model.LocaleEnglish)

	assert.Equal(t, model.EventJobCancelledToAdmin, msg.EventType)
	assert.Contains(t, msg.Text, "Cancelled by staff staff-a")
	assert.Contains(t, msg.Text, "Reason: OTHER")
	assert.Contains(t, msg.Text, "Notes: family matter")
	assert.NotContains(t, msg.Text, "positions filled") // no fill ratio for non-group bookings
}

func TestJobCancelledToAdmin_GroupBookingAddsFillRatio(t *testing.T) {
	c := NewComposer(baseURL)
	ev := model.CancellationEvent{JobOfferID: "job-1", StaffID: "staff-a", ReasonCode: model.ReasonEmergency}

	msg := c.JobCancelledToAdmin(groupJob(), ev, &FillRatio{Assigned: 1, Total: 2}, model.LocaleEnglish)

	assert.Contains(t, msg.Text, "Booking staffing: 1/2 positions filled.")
}

func TestJobReminder_SubjectCarriesTruncatedLabel(t *testing.T) {
	c := NewComposer(baseURL)

	msg := c.JobReminder(singleJob(), 75, model.LocaleEnglish)

	assert.Equal(t, "Reminder: your job starts in 1 hour", msg.Subject)
}

func TestJobEscalation_BodyCarriesPreciseLabel(t *testing.T) {
	c := NewComposer(baseURL)

	msg := c.JobEscalation(singleJob(), 75, model.LocaleEnglish)

	assert.Equal(t, "Urgent: job still needs staff", msg.Subject)
	assert.Contains(t, msg.Text, "waiting for 1 hour 15 minutes")
}

func TestBookingCancelledToStaff_LinksToJobList(t *testing.T) {
	c := NewComposer(baseURL)

	msg := c.BookingCancelledToStaff(singleJob(), model.LocaleEnglish)

	assert.Equal(t, model.EventBookingCancelledToStaff, msg.EventType)
	assert.Contains(t, msg.Text, baseURL+"/staff/jobs")
}

func TestComposer_ThaiLocale(t *testing.T) {
	c := NewComposer(baseURL)

	msg := c.NewJob(singleJob(), model.LocaleThai)

	require.Equal(t, model.LocaleThai, msg.Locale)
	assert.Equal(t, "มีงานใหม่", msg.Subject)
	assert.Contains(t, msg.Text, "ค่าตอบแทน")
}

func TestComposer_HTMLWrapsLines(t *testing.T) {
	c := NewComposer(baseURL)

	msg := c.NewJob(singleJob(), model.LocaleEnglish)

	assert.Contains(t, msg.HTML, "<p><strong>New job available</strong></p>")
	assert.Contains(t, msg.HTML, "<p>Location: Sukhumvit 24, Bangkok</p>")
}
