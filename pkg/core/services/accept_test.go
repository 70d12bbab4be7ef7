package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siamclean/dispatch/pkg/db"
)

func TestAcceptOffer_FirstAcceptWins(t *testing.T) {
	store := &mockOfferStore{}

	err := AcceptOffer(context.Background(), store, zap.NewNop(), "j1", "staff-a")

	require.NoError(t, err)
	assert.Equal(t, []string{"j1:staff-a"}, store.assignCalls)
}

func TestAcceptOffer_SecondAcceptGetsStateConflict(t *testing.T) {
	store := &mockOfferStore{assignErr: db.ErrStateConflict}

	err := AcceptOffer(context.Background(), store, zap.NewNop(), "j1", "staff-b")

	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrStateConflict))
}

func TestAcceptOffer_RejectsEmptyInput(t *testing.T) {
	store := &mockOfferStore{}

	var vErr *ValidationError
	err := AcceptOffer(context.Background(), store, zap.NewNop(), "", "staff-a")
	require.ErrorAs(t, err, &vErr)

	err = AcceptOffer(context.Background(), store, zap.NewNop(), "j1", "")
	require.ErrorAs(t, err, &vErr)

	assert.Empty(t, store.assignCalls, "validation failures must not reach the store")
}
