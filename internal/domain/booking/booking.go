package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/venuelink/service-booking/internal/domain/apperr"
	"github.com/venuelink/service-booking/internal/domain/slot"
)

// Status is the lifecycle state of a booking request.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusRejected  Status = "REJECTED"
	StatusExpired   Status = "EXPIRED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Booking is the aggregate root for a reservation of a vendor's calendar.
// It carries a surrogate id for internal references and a public opaque uuid
// for external addressing. Amounts are in the currency's minor unit.
type Booking struct {
	id          int64
	publicID    uuid.UUID
	vendorID    uuid.UUID
	requesterID uuid.UUID
	productID   uuid.UUID
	slot        slot.Slot

	totalAmount     int64
	discountAmount  int64
	finalAmount     int64
	advanceAmount   int64
	remainingAmount int64
	couponCode      string
	currency        string

	status    Status
	notes     string
	createdAt time.Time
	expiresAt time.Time
	decidedAt *time.Time
	version   int64
}

// New creates a PENDING booking with the approval-expiry clock started.
// The caller supplies already-computed money fields; the aggregate enforces
// their invariants.
func New(vendorID, requesterID, productID uuid.UUID, s slot.Slot, total, discount, advance int64, couponCode, currency string, approvalWindow time.Duration) (*Booking, error) {
	if vendorID == requesterID {
		return nil, apperr.NewValidationError("a vendor cannot book their own service")
	}
	if total < 0 || discount < 0 || discount > total {
		return nil, apperr.NewValidationError("discount must be between zero and the total amount")
	}
	final := total - discount
	if advance < 0 || advance > final {
		return nil, apperr.NewValidationError("advance must be between zero and the final amount")
	}

	now := time.Now().UTC()
	return &Booking{
		publicID:        uuid.New(),
		vendorID:        vendorID,
		requesterID:     requesterID,
		productID:       productID,
		slot:            s,
		totalAmount:     total,
		discountAmount:  discount,
		finalAmount:     final,
		advanceAmount:   advance,
		remainingAmount: final - advance,
		couponCode:      couponCode,
		currency:        currency,
		status:          StatusPending,
		createdAt:       now,
		expiresAt:       now.Add(approvalWindow),
		version:         1,
	}, nil
}

// Reconstitute rebuilds a Booking from persisted data.
func Reconstitute(
	id int64,
	publicID, vendorID, requesterID, productID uuid.UUID,
	s slot.Slot,
	total, discount, final, advance, remaining int64,
	couponCode, currency string,
	status Status,
	notes string,
	createdAt, expiresAt time.Time,
	decidedAt *time.Time,
	version int64,
) *Booking {
	return &Booking{
		id:              id,
		publicID:        publicID,
		vendorID:        vendorID,
		requesterID:     requesterID,
		productID:       productID,
		slot:            s,
		totalAmount:     total,
		discountAmount:  discount,
		finalAmount:     final,
		advanceAmount:   advance,
		remainingAmount: remaining,
		couponCode:      couponCode,
		currency:        currency,
		status:          status,
		notes:           notes,
		createdAt:       createdAt,
		expiresAt:       expiresAt,
		decidedAt:       decidedAt,
		version:         version,
	}
}

// IsExpired reports whether the approval window has lapsed.
func (b *Booking) IsExpired(now time.Time) bool {
	return now.After(b.expiresAt)
}

// Approve transitions PENDING to CONFIRMED. The expiry window is re-validated
// here even though the sweep should have pre-empted a late approval.
func (b *Booking) Approve(now time.Time) error {
	if b.status != StatusPending {
		return apperr.NewStateError(apperr.CodeAlreadyDecided, "booking has already been decided")
	}
	if b.IsExpired(now) {
		return apperr.NewStateError(apperr.CodeExpired, "booking approval window has expired")
	}
	b.status = StatusConfirmed
	b.decidedAt = &now
	return nil
}

// Reject transitions PENDING to REJECTED.
func (b *Booking) Reject(now time.Time) error {
	if b.status != StatusPending {
		return apperr.NewStateError(apperr.CodeAlreadyDecided, "booking has already been decided")
	}
	if b.IsExpired(now) {
		return apperr.NewStateError(apperr.CodeExpired, "booking approval window has expired")
	}
	b.status = StatusRejected
	b.decidedAt = &now
	return nil
}

// Expire transitions PENDING to EXPIRED once the window lapses.
func (b *Booking) Expire(now time.Time) error {
	if b.status != StatusPending {
		return apperr.NewStateError(apperr.CodeAlreadyDecided, "booking has already been decided")
	}
	b.status = StatusExpired
	b.decidedAt = &now
	return nil
}

// Complete transitions CONFIRMED to COMPLETED after the service date has
// passed and the remaining installment is settled.
func (b *Booking) Complete(now time.Time) error {
	if b.status != StatusConfirmed {
		return apperr.NewInvalidStateError(string(b.status), string(StatusCompleted))
	}
	if !b.slot.EndsBefore(now) {
		return apperr.NewStateError(apperr.CodeInvalidState, "booking cannot complete before the service date has passed")
	}
	b.status = StatusCompleted
	return nil
}

// Cancel transitions CONFIRMED to CANCELLED.
func (b *Booking) Cancel() error {
	if b.status != StatusConfirmed {
		return apperr.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	b.status = StatusCancelled
	return nil
}

// SetNotes annotates the booking. Either party may write notes once the
// booking is confirmed or later.
func (b *Booking) SetNotes(actorID uuid.UUID, notes string) error {
	if actorID != b.vendorID && actorID != b.requesterID {
		return apperr.NewForbiddenError("only the vendor or the requester may annotate a booking")
	}
	switch b.status {
	case StatusConfirmed, StatusCompleted, StatusCancelled:
		b.notes = notes
		return nil
	default:
		return apperr.NewForbiddenError("notes may only be saved after a booking is confirmed")
	}
}

// IsParty reports whether actorID is the vendor or the requester.
func (b *Booking) IsParty(actorID uuid.UUID) bool {
	return actorID == b.vendorID || actorID == b.requesterID
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() { b.version++ }

// SetID assigns the surrogate id after insertion.
func (b *Booking) SetID(id int64) { b.id = id }

// Getters.
func (b *Booking) ID() int64              { return b.id }
func (b *Booking) PublicID() uuid.UUID    { return b.publicID }
func (b *Booking) VendorID() uuid.UUID    { return b.vendorID }
func (b *Booking) RequesterID() uuid.UUID { return b.requesterID }
func (b *Booking) ProductID() uuid.UUID   { return b.productID }
func (b *Booking) Slot() slot.Slot        { return b.slot }
func (b *Booking) TotalAmount() int64     { return b.totalAmount }
func (b *Booking) DiscountAmount() int64  { return b.discountAmount }
func (b *Booking) FinalAmount() int64     { return b.finalAmount }
func (b *Booking) AdvanceAmount() int64   { return b.advanceAmount }
func (b *Booking) RemainingAmount() int64 { return b.remainingAmount }
func (b *Booking) CouponCode() string     { return b.couponCode }
func (b *Booking) Currency() string       { return b.currency }
func (b *Booking) Status() Status         { return b.status }
func (b *Booking) Notes() string          { return b.notes }
func (b *Booking) CreatedAt() time.Time   { return b.createdAt }
func (b *Booking) ExpiresAt() time.Time   { return b.expiresAt }
func (b *Booking) DecidedAt() *time.Time  { return b.decidedAt }
func (b *Booking) Version() int64         { return b.version }
