package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/venuelink/service-booking/internal/domain/calendar"
	"github.com/venuelink/service-booking/pkg/kafka"
)

// EventPublisher is the outbound port for domain events. Satisfied by
// kafka.Producer; tests substitute a recorder.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, ce kafka.CloudEvent) error
}

// ViewCache is the read-side cache for calendar views. Satisfied by
// adapter.CalendarCache. All methods degrade silently; cache failures never
// fail a request.
type ViewCache interface {
	Get(ctx context.Context, vendorID uuid.UUID) (*calendar.View, bool)
	Set(ctx context.Context, vendorID uuid.UUID, view *calendar.View)
	Invalidate(ctx context.Context, vendorIDs ...uuid.UUID)
}
