package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/venuelink/service-booking/internal/domain/slot"
)

// Repository defines the persistence contract for Booking aggregates.
// CreateExclusive and ConfirmExclusive each run as one atomic unit against
// the store: the availability check and the write commit or fail together.
type Repository interface {
	// CreateExclusive inserts a PENDING booking iff its slot does not overlap
	// any CONFIRMED booking or calendar block for the vendor. Returns a
	// SLOT_UNAVAILABLE conflict otherwise.
	CreateExclusive(ctx context.Context, b *Booking) error

	// ConfirmExclusive persists an Approve transition iff the slot is still
	// free of other CONFIRMED bookings and blocks, re-checked under lock in
	// the same transaction. conflict=true means the slot was lost to a race;
	// the booking row is untouched in that case.
	ConfirmExclusive(ctx context.Context, b *Booking) (conflict bool, err error)

	// Update persists aggregate changes with an optimistic-lock version check
	// and, for PENDING-precondition transitions, a status re-check.
	Update(ctx context.Context, b *Booking) error

	FindByPublicID(ctx context.Context, publicID uuid.UUID) (*Booking, error)
	FindByID(ctx context.Context, id int64) (*Booking, error)

	// ListConfirmedOverlapping returns CONFIRMED bookings for the vendor whose
	// date range overlaps s (time refinement is the caller's concern).
	ListConfirmedOverlapping(ctx context.Context, vendorID uuid.UUID, s slot.Slot) ([]*Booking, error)

	// ListConfirmedForVendor returns CONFIRMED bookings ordered by start date.
	ListConfirmedForVendor(ctx context.Context, vendorID uuid.UUID) ([]*Booking, error)

	// ListForVendor returns the vendor's non-terminal bookings as the service
	// owner, ordered by start date.
	ListForVendor(ctx context.Context, vendorID uuid.UUID) ([]*Booking, error)

	// ListByRequester returns the actor's non-terminal bookings made against
	// other vendors, ordered by start date.
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*Booking, error)

	// ExpireDue transitions every PENDING booking past its expiry to EXPIRED
	// in one conditional update and returns the number of rows changed.
	// Idempotent and safe under concurrent sweeps.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}
