package events

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/venuelink/service-booking/pkg/kafka"
)

// NotificationConsumer turns booking and payment events into notifications
// for the parties involved. It is the notify-and-forget end of every side
// effect: handler errors are logged and the stream moves on.
type NotificationConsumer struct {
	bookingConsumer *kafka.Consumer
	paymentConsumer *kafka.Consumer
	notifier        Notifier
	logger          *zap.Logger
}

// NewNotificationConsumer creates consumers for both topics in one group.
func NewNotificationConsumer(brokers []string, groupID string, notifier Notifier, logger *zap.Logger) *NotificationConsumer {
	return &NotificationConsumer{
		bookingConsumer: kafka.NewConsumer(brokers, groupID, TopicBookingEvents, logger),
		paymentConsumer: kafka.NewConsumer(brokers, groupID, TopicPaymentEvents, logger),
		notifier:        notifier,
		logger:          logger,
	}
}

// Start consumes both topics until ctx is cancelled.
func (c *NotificationConsumer) Start(ctx context.Context) {
	go func() {
		if err := c.bookingConsumer.Consume(ctx, c.handleMessage); err != nil && ctx.Err() == nil {
			c.logger.Error("booking event consumer stopped", zap.Error(err))
		}
	}()
	go func() {
		if err := c.paymentConsumer.Consume(ctx, c.handleMessage); err != nil && ctx.Err() == nil {
			c.logger.Error("payment event consumer stopped", zap.Error(err))
		}
	}()
}

// handleMessage routes an incoming CloudEvent to the notifier.
func (c *NotificationConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	ce, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return err
	}

	switch ce.Type {
	case BookingCreated:
		var evt BookingCreatedEvent
		if err := ce.ParseData(&evt); err != nil {
			return err
		}
		payload := map[string]interface{}{
			"booking_id": evt.BookingID,
			"start_date": evt.StartDate,
			"end_date":   evt.EndDate,
			"expires_at": evt.ExpiresAt,
		}
		if err := c.notifier.Notify(ctx, "booking_requested", evt.VendorID, payload); err != nil {
			return err
		}
		return c.notifier.Notify(ctx, "booking_request_sent", evt.RequesterID, payload)

	case BookingDecided:
		var evt BookingDecidedEvent
		if err := ce.ParseData(&evt); err != nil {
			return err
		}
		payload := map[string]interface{}{
			"booking_id": evt.BookingID,
			"status":     evt.Status,
		}
		if err := c.notifier.Notify(ctx, "booking_decided", evt.RequesterID, payload); err != nil {
			return err
		}
		return c.notifier.Notify(ctx, "booking_decided", evt.VendorID, payload)

	case AdvancePaid, RemainingPaid:
		var evt PaymentVerifiedEvent
		if err := ce.ParseData(&evt); err != nil {
			return err
		}
		payload := map[string]interface{}{
			"booking_id": evt.BookingID,
			"phase":      evt.Phase,
			"amount":     evt.Amount,
			"currency":   evt.Currency,
		}
		if err := c.notifier.Notify(ctx, "payment_received", evt.VendorID, payload); err != nil {
			return err
		}
		return c.notifier.Notify(ctx, "payment_receipt", evt.RequesterID, payload)

	default:
		c.logger.Debug("ignoring unhandled event type", zap.String("type", ce.Type))
		return nil
	}
}

// Close closes both underlying consumers.
func (c *NotificationConsumer) Close() error {
	err1 := c.bookingConsumer.Close()
	err2 := c.paymentConsumer.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
