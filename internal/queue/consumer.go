// Package queue contains the background consumer that turns broker events
// into dispatch operations: staff cancellations trigger the cancel-and-replace
// cascade, booking cancellations tear down every child offer.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/siamclean/dispatch/pkg/core/compose"
	"github.com/siamclean/dispatch/pkg/core/model"
	"github.com/siamclean/dispatch/pkg/core/services"
	"github.com/siamclean/dispatch/pkg/db"
)

const maxReconnectBackoff = 30 * time.Second

// Consumer consumes cancellation events from the broker.
type Consumer struct {
	url           string
	staffQueue    string
	bookingQueue  string
	store         db.OfferStore
	pusher        services.Pusher
	mailer        services.AuditMailer
	composer      *compose.Composer
	logger        *zap.Logger
	operatorIDs   []string
	defaultLocale model.Locale
}

// NewConsumer creates a consumer. mailer may be nil when audit mail is not
// configured.
func NewConsumer(
	url string,
	staffQueue, bookingQueue string,
	store db.OfferStore,
	pusher services.Pusher,
	mailer services.AuditMailer,
	composer *compose.Composer,
	logger *zap.Logger,
	operatorIDs []string,
	defaultLocale model.Locale,
) *Consumer {
	return &Consumer{
		url:           url,
		staffQueue:    staffQueue,
		bookingQueue:  bookingQueue,
		store:         store,
		pusher:        pusher,
		mailer:        mailer,
		composer:      composer,
		logger:        logger,
		operatorIDs:   operatorIDs,
		defaultLocale: defaultLocale,
	}
}

// Start connects to the broker, declares both queues (durable), and consumes
// until the context is cancelled. It runs a reconnect loop with exponential
// backoff; processing errors reject the offending message without requeueing
// so the consumer keeps operating.
func (c *Consumer) Start(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Warn("failed to dial broker, retrying",
				zap.Error(err),
				zap.Duration("backoff", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			if backoff < maxReconnectBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("consume loop ended, reconnecting", zap.Error(err))
		select {
		case <-time.After(2 * time.Second):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.logger.Warn("set QoS failed", zap.Error(err))
	}

	for _, queueName := range []string{c.staffQueue, c.bookingQueue} {
		if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", queueName, err)
		}
	}

	staffMsgs, err := ch.Consume(c.staffQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume %s: %w", c.staffQueue, err)
	}
	bookingMsgs, err := ch.Consume(c.bookingQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume %s: %w", c.bookingQueue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-staffMsgs:
			if !ok {
				return errors.New("staff deliveries channel closed")
			}
			c.settle(d, c.handleStaffCancelled(ctx, d.Body))
		case d, ok := <-bookingMsgs:
			if !ok {
				return errors.New("booking deliveries channel closed")
			}
			c.settle(d, c.handleBookingCancelled(ctx, d.Body))
		}
	}
}

// settle acks a processed delivery, or rejects it without requeueing so a
// poison message cannot produce a tight redelivery loop.
func (c *Consumer) settle(d amqp.Delivery, err error) {
	if err != nil {
		c.logger.Error("handle message failed", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func (c *Consumer) handleStaffCancelled(ctx context.Context, body []byte) error {
	var ev StaffCancelledEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal staff cancelled event: %w", err)
	}

	locale := c.defaultLocale
	if ev.Locale != "" {
		locale = model.ParseLocale(ev.Locale)
	}

	result, err := services.Cancel(ctx, c.store, c.pusher, c.mailer, c.composer, c.logger, services.CascadeParams{
		OfferID:     ev.JobOfferID,
		StaffID:     ev.StaffID,
		Reason:      model.ReasonCode(ev.ReasonCode),
		Notes:       ev.Notes,
		Locale:      locale,
		OperatorIDs: c.operatorIDs,
	})
	if err != nil {
		return fmt.Errorf("cancel offer %s: %w", ev.JobOfferID, err)
	}

	c.logger.Info("processed staff cancellation",
		zap.String("jobOfferID", ev.JobOfferID),
		zap.String("newOfferID", result.NewOfferID),
		zap.Bool("notificationsSent", result.NotificationsSent))
	return nil
}

func (c *Consumer) handleBookingCancelled(ctx context.Context, body []byte) error {
	var ev BookingCancelledEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal booking cancelled event: %w", err)
	}

	locale := c.defaultLocale
	if ev.Locale != "" {
		locale = model.ParseLocale(ev.Locale)
	}

	outcomes, err := services.CancelBooking(ctx, c.store, c.pusher, c.composer, c.logger, ev.BookingID, locale)
	if err != nil {
		return fmt.Errorf("cancel booking %s: %w", ev.BookingID, err)
	}

	c.logger.Info("processed booking cancellation",
		zap.String("bookingID", ev.BookingID),
		zap.Int("holdersNotified", len(outcomes)))
	return nil
}
