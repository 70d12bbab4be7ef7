package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siamclean/dispatch/pkg/core/compose"
	"github.com/siamclean/dispatch/pkg/core/model"
)

func testComposer() *compose.Composer {
	return compose.NewComposer("https://app.siamclean.example")
}

func openOffer(id string, eligible ...string) *model.JobOffer {
	return &model.JobOffer{
		ID:               id,
		ParentBookingID:  "booking-1",
		Status:           model.StatusOpen,
		EligibleStaffIDs: eligible,
		ScheduledAt:      time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC),
		DurationMinutes:  180,
		Earnings:         950,
		LocationInfo:     "Sukhumvit 24, Bangkok",
		OpenedAt:         time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

func TestDispatchNewJob_MulticastsDedupedSet(t *testing.T) {
	pusher := &mockPusher{}

	ok := DispatchNewJob(context.Background(), &mockOfferStore{}, pusher, testComposer(), zap.NewNop(),
		openOffer("j1", "a", "b", "c"), []string{"a", "b", "a", "c", ""}, model.LocaleEnglish)

	assert.True(t, ok)
	require.Len(t, pusher.multicastBatches, 1)
	assert.Equal(t, []string{"a", "b", "c"}, pusher.multicastBatches[0])
	assert.Equal(t, model.EventNewJob, pusher.multicastMessages[0].EventType)
	assert.Empty(t, pusher.pushRecipients, "fan-out uses multicast, not individual pushes")
}

func TestDispatchNewJob_EmptySetIsSuccessfulNoOp(t *testing.T) {
	pusher := &mockPusher{}

	ok := DispatchNewJob(context.Background(), &mockOfferStore{}, pusher, testComposer(), zap.NewNop(),
		openOffer("j1"), nil, model.LocaleEnglish)

	assert.True(t, ok)
	assert.Empty(t, pusher.multicastBatches)
}

func TestDispatchNewJob_ReturnsAdapterAggregate(t *testing.T) {
	pusher := &mockPusher{failMulticast: true}

	ok := DispatchNewJob(context.Background(), &mockOfferStore{}, pusher, testComposer(), zap.NewNop(),
		openOffer("j1", "a"), []string{"a"}, model.LocaleEnglish)

	assert.False(t, ok, "delivery failure surfaces as false, never as an error")
}

func groupOpenOffer(id, recipientName string, eligible ...string) *model.JobOffer {
	offer := openOffer(id, eligible...)
	offer.IsGroupBooking = true
	offer.TotalGroupSize = 2
	offer.RecipientName = recipientName
	return offer
}

func TestDispatchNewJob_GroupBookingEnumeratesChildren(t *testing.T) {
	first := groupOpenOffer("g1", "Khun Mali", "a", "b")
	second := groupOpenOffer("g2", "Khun Somchai", "a", "b")
	second.DurationMinutes = 120
	second.Earnings = 700
	store := &mockOfferStore{
		byBooking: map[string][]model.JobOffer{"booking-1": {*first, *second}},
	}
	pusher := &mockPusher{}

	ok := DispatchNewJob(context.Background(), store, pusher, testComposer(), zap.NewNop(),
		first, first.EligibleStaffIDs, model.LocaleEnglish)

	assert.True(t, ok)
	require.Len(t, pusher.multicastMessages, 1)
	text := pusher.multicastMessages[0].Text

	// Each position is listed with its own name and deep link; the
	// single-booking detail block is replaced by the enumeration.
	assert.Contains(t, text, "Khun Mali")
	assert.Contains(t, text, "Khun Somchai")
	assert.Contains(t, text, "120 minutes, 700.00 THB")
	assert.Contains(t, text, "/staff/jobs/g1")
	assert.Contains(t, text, "/staff/jobs/g2")
	assert.NotContains(t, text, "Duration:")
}

func TestDispatchNewJob_GroupBookingSkipsCancelledChildren(t *testing.T) {
	first := groupOpenOffer("g1", "Khun Mali", "a")
	gone := groupOpenOffer("g0", "Khun Anong", "a")
	gone.Status = model.StatusCancelled
	store := &mockOfferStore{
		byBooking: map[string][]model.JobOffer{"booking-1": {*gone, *first}},
	}
	pusher := &mockPusher{}

	DispatchNewJob(context.Background(), store, pusher, testComposer(), zap.NewNop(),
		first, first.EligibleStaffIDs, model.LocaleEnglish)

	require.Len(t, pusher.multicastMessages, 1)
	assert.NotContains(t, pusher.multicastMessages[0].Text, "Khun Anong")
}

func TestDispatchNewJob_GroupListingFailureDegradesToSingleBlock(t *testing.T) {
	offer := groupOpenOffer("g1", "Khun Mali", "a")
	store := &mockOfferStore{listByBookingErr: errors.New("db down")}
	pusher := &mockPusher{}

	ok := DispatchNewJob(context.Background(), store, pusher, testComposer(), zap.NewNop(),
		offer, offer.EligibleStaffIDs, model.LocaleEnglish)

	assert.True(t, ok, "listing failure must not block the fan-out")
	require.Len(t, pusher.multicastMessages, 1)
	assert.Contains(t, pusher.multicastMessages[0].Text, "Duration:")
}
