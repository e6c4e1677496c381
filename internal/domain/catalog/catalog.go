package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/venuelink/service-booking/internal/domain/slot"
)

// AdvanceType is how a product computes its advance installment.
type AdvanceType string

const (
	AdvanceFixed      AdvanceType = "FIXED"
	AdvancePercentage AdvanceType = "PERCENTAGE"
)

// Product is the catalog contract the booking core consumes. The catalog is
// an external collaborator; the core only depends on this shape.
type Product struct {
	PublicID           uuid.UUID
	VendorID           uuid.UUID
	Name               string
	BasePriceSingleDay int64
	BasePriceMultiDay  int64 // per day
	AdvanceType        AdvanceType
	AdvanceValue       int64
	Currency           string
}

// Service resolves products for booking creation.
type Service interface {
	GetProduct(ctx context.Context, publicID uuid.UUID) (*Product, error)
}

// PriceFor returns the gross price for a slot: the single-day rate, or the
// per-day multi-day rate times the inclusive day count.
func (p *Product) PriceFor(s slot.Slot) int64 {
	if s.Kind == slot.SingleDay {
		return p.BasePriceSingleDay
	}
	return p.BasePriceMultiDay * int64(s.Days())
}

// AdvanceFor computes the advance installment from the discounted final
// amount, clamped so the advance never exceeds what is owed.
func (p *Product) AdvanceFor(finalAmount int64) int64 {
	var advance int64
	switch p.AdvanceType {
	case AdvancePercentage:
		advance = (finalAmount*p.AdvanceValue + 50) / 100
	default:
		advance = p.AdvanceValue
	}
	if advance > finalAmount {
		advance = finalAmount
	}
	if advance < 0 {
		advance = 0
	}
	return advance
}
