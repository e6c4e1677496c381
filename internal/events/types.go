package events

import (
	"time"

	"github.com/google/uuid"
)

// Kafka topics.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Event types.
const (
	BookingCreated  = "booking.created"
	BookingDecided  = "booking.decided"
	BookingExpired  = "booking.expired"
	AdvancePaid     = "payment.advance_paid"
	RemainingPaid   = "payment.remaining_paid"
	BookingComplete = "booking.completed"
)

// Source identifies this service in CloudEvent envelopes.
const Source = "service-booking"

// BookingCreatedEvent notifies both parties of a new PENDING request.
type BookingCreatedEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	VendorID    uuid.UUID `json:"vendor_id"`
	RequesterID uuid.UUID `json:"requester_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	FinalAmount int64     `json:"final_amount"`
	ExpiresAt   time.Time `json:"expires_at"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// BookingDecidedEvent notifies the requester of the vendor's decision.
type BookingDecidedEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	VendorID    uuid.UUID `json:"vendor_id"`
	RequesterID uuid.UUID `json:"requester_id"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// BookingExpiredEvent reports requests that lapsed undecided.
type BookingExpiredEvent struct {
	Count      int64     `json:"count"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PaymentVerifiedEvent reports a settled installment; used for both phases.
type PaymentVerifiedEvent struct {
	BookingID        uuid.UUID `json:"booking_id"`
	VendorID         uuid.UUID `json:"vendor_id"`
	RequesterID      uuid.UUID `json:"requester_id"`
	Phase            string    `json:"phase"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	GatewayPaymentID string    `json:"gateway_payment_id"`
	OccurredAt       time.Time `json:"occurred_at"`
}
