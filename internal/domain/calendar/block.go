package calendar

import (
	"time"

	"github.com/google/uuid"
	"github.com/venuelink/service-booking/internal/domain/apperr"
	"github.com/venuelink/service-booking/internal/domain/slot"
)

// Block is a vendor-declared unavailable date range not tied to any booking.
// It is owned exclusively by the vendor that created it.
type Block struct {
	id        int64
	publicID  uuid.UUID
	vendorID  uuid.UUID
	startDate time.Time
	endDate   time.Time
	reason    string
	createdAt time.Time
}

// NewBlock creates a block for the vendor's own calendar.
func NewBlock(vendorID uuid.UUID, startDate, endDate time.Time, reason string) (*Block, error) {
	if endDate.Before(startDate) {
		return nil, apperr.NewValidationError("end_date must not precede start_date")
	}
	return &Block{
		publicID:  uuid.New(),
		vendorID:  vendorID,
		startDate: startDate,
		endDate:   endDate,
		reason:    reason,
		createdAt: time.Now().UTC(),
	}, nil
}

// Reconstitute rebuilds a Block from persisted data.
func Reconstitute(id int64, publicID, vendorID uuid.UUID, startDate, endDate time.Time, reason string, createdAt time.Time) *Block {
	return &Block{
		id: id, publicID: publicID, vendorID: vendorID,
		startDate: startDate, endDate: endDate,
		reason: reason, createdAt: createdAt,
	}
}

// Slot projects the block as a whole-day calendar slot for overlap checks.
func (b *Block) Slot() slot.Slot {
	return slot.FromDates(b.startDate, b.endDate)
}

func (b *Block) SetID(id int64) { b.id = id }

// Getters.
func (b *Block) ID() int64            { return b.id }
func (b *Block) PublicID() uuid.UUID  { return b.publicID }
func (b *Block) VendorID() uuid.UUID  { return b.vendorID }
func (b *Block) StartDate() time.Time { return b.startDate }
func (b *Block) EndDate() time.Time   { return b.endDate }
func (b *Block) Reason() string       { return b.reason }
func (b *Block) CreatedAt() time.Time { return b.createdAt }
