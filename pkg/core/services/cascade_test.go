package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siamclean/dispatch/pkg/core/model"
	"github.com/siamclean/dispatch/pkg/db"
)

func assignedOffer(id, holder string, eligible ...string) *model.JobOffer {
	offer := openOffer(id, eligible...)
	offer.Status = model.StatusAssigned
	offer.AssignedStaffID = &holder
	return offer
}

func cascadeParams() CascadeParams {
	return CascadeParams{
		OfferID:     "j1",
		StaffID:     "staff-a",
		Reason:      model.ReasonEmergency,
		Locale:      model.LocaleEnglish,
		OperatorIDs: []string{"op-1", "op-2"},
	}
}

func TestCancel_ReplacesOfferAndPushesIndividually(t *testing.T) {
	store := &mockOfferStore{
		offers:     map[string]*model.JobOffer{"j1": assignedOffer("j1", "staff-a", "staff-a", "staff-b", "staff-c")},
		newOfferID: "j2",
	}
	pusher := &mockPusher{}
	mailer := &mockMailer{}

	result, err := Cancel(context.Background(), store, pusher, mailer, testComposer(), zap.NewNop(), cascadeParams())

	require.NoError(t, err)
	assert.Equal(t, "j2", result.NewOfferID)
	assert.True(t, result.NotificationsSent)

	// The canceller is excluded; remaining staff and operators each get an
	// individual push, never a multicast.
	assert.Equal(t, []string{"staff-b", "staff-c", "op-1", "op-2"}, pusher.pushRecipients)
	assert.Empty(t, pusher.multicastBatches)

	require.Len(t, result.StaffOutcomes, 2)
	assert.Equal(t, "staff-b", result.StaffOutcomes[0].RecipientID)
	assert.True(t, result.StaffOutcomes[0].Success)
	require.Len(t, result.OperatorOutcomes, 2)

	// The re-offer message deep links to the replacement offer.
	assert.Contains(t, pusher.pushMessages[0].Text, "/staff/jobs/j2")
	assert.Equal(t, model.EventJobReAvailable, pusher.pushMessages[0].EventType)

	// Operators see the reason; no fill ratio for a non-group booking.
	operatorMsg := pusher.pushMessages[2]
	assert.Equal(t, model.EventJobCancelledToAdmin, operatorMsg.EventType)
	assert.Contains(t, operatorMsg.Text, "EMERGENCY")
	assert.NotContains(t, operatorMsg.Text, "positions filled")

	// The recorded event carries the request data.
	require.Len(t, store.cancelEvents, 1)
	assert.Equal(t, "j1", store.cancelEvents[0].JobOfferID)
	assert.Equal(t, "staff-a", store.cancelEvents[0].StaffID)
	assert.Equal(t, model.ReasonEmergency, store.cancelEvents[0].ReasonCode)

	require.Len(t, mailer.sent, 1)
}

func TestCancel_ValidationFailsBeforeAnySideEffect(t *testing.T) {
	store := &mockOfferStore{offers: map[string]*model.JobOffer{"j1": assignedOffer("j1", "staff-a", "staff-a", "staff-b")}}
	pusher := &mockPusher{}

	tests := []struct {
		name   string
		mutate func(*CascadeParams)
	}{
		{"unknown reason code", func(p *CascadeParams) { p.Reason = "MOOD" }},
		{"missing notes for OTHER", func(p *CascadeParams) { p.Reason = model.ReasonOther; p.Notes = "" }},
		{"empty offer id", func(p *CascadeParams) { p.OfferID = "" }},
		{"empty staff id", func(p *CascadeParams) { p.StaffID = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := cascadeParams()
			tc.mutate(&params)

			result, err := Cancel(context.Background(), store, pusher, nil, testComposer(), zap.NewNop(), params)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Nil(t, result)
			assert.Empty(t, store.cancelEvents)
			assert.Empty(t, pusher.pushRecipients)
		})
	}
}

func TestCancel_NotesWithOtherReasonIsAccepted(t *testing.T) {
	store := &mockOfferStore{
		offers:     map[string]*model.JobOffer{"j1": assignedOffer("j1", "staff-a", "staff-a", "staff-b")},
		newOfferID: "j2",
	}
	params := cascadeParams()
	params.Reason = model.ReasonOther
	params.Notes = "family matter"

	result, err := Cancel(context.Background(), store, &mockPusher{}, nil, testComposer(), zap.NewNop(), params)

	require.NoError(t, err)
	assert.Equal(t, "family matter", store.cancelEvents[0].Notes)
	assert.Equal(t, "j2", result.NewOfferID)
}

func TestCancel_RejectsRequestFromNonHolder(t *testing.T) {
	store := &mockOfferStore{
		offers:     map[string]*model.JobOffer{"j1": assignedOffer("j1", "staff-x", "staff-a", "staff-b")},
		newOfferID: "j2",
	}
	pusher := &mockPusher{}

	result, err := Cancel(context.Background(), store, pusher, nil, testComposer(), zap.NewNop(), cascadeParams())

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Nil(t, result)
	assert.Empty(t, store.cancelEvents, "no state change on a non-holder request")
	assert.Empty(t, pusher.pushRecipients)
}

func TestCancel_StateConflictPropagates(t *testing.T) {
	store := &mockOfferStore{
		offers:    map[string]*model.JobOffer{"j1": assignedOffer("j1", "staff-a", "staff-a", "staff-b")},
		cancelErr: db.ErrStateConflict,
	}
	pusher := &mockPusher{}

	result, err := Cancel(context.Background(), store, pusher, nil, testComposer(), zap.NewNop(), cascadeParams())

	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrStateConflict))
	assert.Nil(t, result)
	assert.Empty(t, pusher.pushRecipients, "no notifications when the transition failed")
}

func TestCancel_DeliveryFailureDoesNotFailTheCascade(t *testing.T) {
	store := &mockOfferStore{
		offers:     map[string]*model.JobOffer{"j1": assignedOffer("j1", "staff-a", "staff-a", "staff-b", "staff-c")},
		newOfferID: "j2",
	}
	pusher := &mockPusher{failPushFor: map[string]bool{"staff-c": true}}

	result, err := Cancel(context.Background(), store, pusher, nil, testComposer(), zap.NewNop(), cascadeParams())

	require.NoError(t, err, "state transition is authoritative regardless of delivery")
	assert.Equal(t, "j2", result.NewOfferID)
	assert.False(t, result.NotificationsSent)

	require.Len(t, result.StaffOutcomes, 2)
	assert.True(t, result.StaffOutcomes[0].Success)
	assert.False(t, result.StaffOutcomes[1].Success)
	assert.Equal(t, "staff-c", result.StaffOutcomes[1].RecipientID)
	assert.NotEmpty(t, result.StaffOutcomes[1].Error)
}

func TestCancel_GroupBookingReportsFillRatio(t *testing.T) {
	holder := "staff-x"
	offer := assignedOffer("j1", "staff-a", "staff-a", "staff-b")
	offer.IsGroupBooking = true
	offer.TotalGroupSize = 2
	store := &mockOfferStore{
		offers:     map[string]*model.JobOffer{"j1": offer},
		newOfferID: "j2",
		byBooking: map[string][]model.JobOffer{
			"booking-1": {
				{ID: "j1", ParentBookingID: "booking-1", RecipientName: "Khun Mali", Status: model.StatusCancelled, TotalGroupSize: 2},
				{ID: "j2", ParentBookingID: "booking-1", RecipientName: "Khun Mali", Status: model.StatusOpen, TotalGroupSize: 2},
				{ID: "k1", ParentBookingID: "booking-1", RecipientName: "Khun Somchai", Status: model.StatusAssigned, AssignedStaffID: &holder, TotalGroupSize: 2},
			},
		},
	}
	pusher := &mockPusher{}

	result, err := Cancel(context.Background(), store, pusher, nil, testComposer(), zap.NewNop(), cascadeParams())

	require.NoError(t, err)
	require.NotNil(t, result)

	// The re-offer enumerates the surviving positions, not the cancelled one.
	staffMsg := pusher.pushMessages[0]
	assert.Contains(t, staffMsg.Text, "Khun Somchai")
	assert.Contains(t, staffMsg.Text, "/staff/jobs/j2")
	assert.NotContains(t, staffMsg.Text, "/staff/jobs/j1")

	// Operator messages are the pushes after the single remaining staff
	// re-offer.
	operatorMsg := pusher.pushMessages[1]
	assert.Contains(t, operatorMsg.Text, "1/2 positions filled")
}

func TestCancel_AuditMailFailureIsAbsorbed(t *testing.T) {
	store := &mockOfferStore{
		offers:     map[string]*model.JobOffer{"j1": assignedOffer("j1", "staff-a", "staff-a", "staff-b")},
		newOfferID: "j2",
	}
	mailer := &mockMailer{err: errors.New("gmail unavailable")}

	result, err := Cancel(context.Background(), store, &mockPusher{}, mailer, testComposer(), zap.NewNop(), cascadeParams())

	require.NoError(t, err)
	assert.Equal(t, "j2", result.NewOfferID)
}
