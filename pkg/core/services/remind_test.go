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

func TestRemind_PushesToHolderWithTruncatedLabel(t *testing.T) {
	store := &mockOfferStore{offers: map[string]*model.JobOffer{"j1": assignedOffer("j1", "staff-a", "staff-a", "staff-b")}}
	pusher := &mockPusher{}

	// 75 minutes before start: the reminder label drops the remainder.
	ok, err := Remind(context.Background(), store, pusher, testComposer(), zap.NewNop(), "j1", 75, model.LocaleEnglish)

	require.NoError(t, err)
	assert.True(t, ok)
	require.Equal(t, []string{"staff-a"}, pusher.pushRecipients)
	assert.Equal(t, model.EventJobReminder, pusher.pushMessages[0].EventType)
	assert.Contains(t, pusher.pushMessages[0].Subject, "1 hour")
	assert.NotContains(t, pusher.pushMessages[0].Subject, "15 minutes")
}

func TestRemind_OpenOfferHasNoHolder(t *testing.T) {
	store := &mockOfferStore{offers: map[string]*model.JobOffer{"j1": openOffer("j1", "staff-a")}}
	pusher := &mockPusher{}

	ok, err := Remind(context.Background(), store, pusher, testComposer(), zap.NewNop(), "j1", 30, model.LocaleEnglish)

	assert.False(t, ok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrStateConflict))
	assert.Empty(t, pusher.pushRecipients)
}

func TestRemind_FinishedOfferIsNotReminded(t *testing.T) {
	// A stale row may still carry a holder after the job finished; the
	// status gate must keep the reminder from firing regardless.
	offer := assignedOffer("j1", "staff-a", "staff-a")
	offer.Status = model.StatusCompleted
	store := &mockOfferStore{offers: map[string]*model.JobOffer{"j1": offer}}
	pusher := &mockPusher{}

	ok, err := Remind(context.Background(), store, pusher, testComposer(), zap.NewNop(), "j1", 30, model.LocaleEnglish)

	assert.False(t, ok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrStateConflict))
	assert.Empty(t, pusher.pushRecipients)
}

func TestRemind_ValidatesInput(t *testing.T) {
	var vErr *ValidationError
	_, err := Remind(context.Background(), &mockOfferStore{}, &mockPusher{}, testComposer(), zap.NewNop(), "", 30, model.LocaleEnglish)
	require.ErrorAs(t, err, &vErr)

	_, err = Remind(context.Background(), &mockOfferStore{}, &mockPusher{}, testComposer(), zap.NewNop(), "j1", -1, model.LocaleEnglish)
	require.ErrorAs(t, err, &vErr)
}
