package services

import (
	"context"
	"time"

	"github.com/siamclean/dispatch/pkg/core/model"
	"github.com/siamclean/dispatch/pkg/db"
)

// mockPusher implements Pusher and records every call for assertions.
type mockPusher struct {
	pushRecipients    []string
	pushMessages      []model.NotificationMessage
	multicastBatches  [][]string
	multicastMessages []model.NotificationMessage
	failPushFor       map[string]bool
	failMulticast     bool
}

func (m *mockPusher) PushOne(_ context.Context, recipientID string, msg model.NotificationMessage) bool {
	m.pushRecipients = append(m.pushRecipients, recipientID)
	m.pushMessages = append(m.pushMessages, msg)
	return !m.failPushFor[recipientID]
}

func (m *mockPusher) Multicast(_ context.Context, recipientIDs []string, msg model.NotificationMessage) bool {
	m.multicastBatches = append(m.multicastBatches, recipientIDs)
	m.multicastMessages = append(m.multicastMessages, msg)
	return !m.failMulticast
}

type bumpCall struct {
	offerID string
	level   int
}

// mockOfferStore implements the store interfaces the services need.
type mockOfferStore struct {
	offers           map[string]*model.JobOffer
	byBooking        map[string][]model.JobOffer
	openOffers       []model.JobOffer
	newOfferID       string
	cancelEvents     []model.CancellationEvent
	cancelErr        error
	assignCalls      []string
	assignErr        error
	bumpCalls        []bumpCall
	bumpErr          error
	bookingCancelled []string
	heldOffers       []model.JobOffer
	cancelBookingErr error
	listByBookingErr error
}

func (m *mockOfferStore) GetOffer(_ context.Context, id string) (*model.JobOffer, error) {
	offer, ok := m.offers[id]
	if !ok {
		return nil, db.ErrOfferNotFound
	}
	copied := *offer
	return &copied, nil
}

func (m *mockOfferStore) ListOpenOffers(_ context.Context) ([]model.JobOffer, error) {
	return m.openOffers, nil
}

func (m *mockOfferStore) ListByBooking(_ context.Context, bookingID string) ([]model.JobOffer, error) {
	if m.listByBookingErr != nil {
		return nil, m.listByBookingErr
	}
	return m.byBooking[bookingID], nil
}

func (m *mockOfferStore) AssignStaff(_ context.Context, offerID, staffID string) error {
	m.assignCalls = append(m.assignCalls, offerID+":"+staffID)
	return m.assignErr
}

func (m *mockOfferStore) CancelAndReplace(_ context.Context, ev model.CancellationEvent) (string, error) {
	if m.cancelErr != nil {
		return "", m.cancelErr
	}
	m.cancelEvents = append(m.cancelEvents, ev)
	return m.newOfferID, nil
}

func (m *mockOfferStore) CancelBooking(_ context.Context, bookingID string) ([]model.JobOffer, error) {
	if m.cancelBookingErr != nil {
		return nil, m.cancelBookingErr
	}
	m.bookingCancelled = append(m.bookingCancelled, bookingID)
	return m.heldOffers, nil
}

func (m *mockOfferStore) BumpEscalation(_ context.Context, offerID string, newLevel int, _ time.Time) error {
	if m.bumpErr != nil {
		return m.bumpErr
	}
	m.bumpCalls = append(m.bumpCalls, bumpCall{offerID: offerID, level: newLevel})
	if offer, ok := m.offers[offerID]; ok {
		offer.EscalationLevel = newLevel
	}
	return nil
}

// mockLease implements Lease. Offers listed in denied report as held
// elsewhere.
type mockLease struct {
	denied     map[string]bool
	acquireErr error
	acquired   []string
	released   []string
}

func (m *mockLease) Acquire(_ context.Context, offerID string) (bool, error) {
	if m.acquireErr != nil {
		return false, m.acquireErr
	}
	if m.denied[offerID] {
		return false, nil
	}
	m.acquired = append(m.acquired, offerID)
	return true, nil
}

func (m *mockLease) Release(_ context.Context, offerID string) error {
	m.released = append(m.released, offerID)
	return nil
}

// mockMailer implements AuditMailer.
type mockMailer struct {
	sent []model.CancellationEvent
	err  error
}

func (m *mockMailer) SendCancellationAudit(ev model.CancellationEvent, _ model.JobOffer) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, ev)
	return nil
}
