package calendar

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence operations for calendar blocks.
type Repository interface {
	// CreateExclusive inserts the block iff its range does not overlap a
	// CONFIRMED booking for the same vendor, as one atomic unit. Returns a
	// BLOCK_OVERLAP conflict otherwise.
	CreateExclusive(ctx context.Context, b *Block) error

	FindByPublicID(ctx context.Context, publicID uuid.UUID) (*Block, error)

	// ListForVendor returns the vendor's blocks ordered by start date.
	ListForVendor(ctx context.Context, vendorID uuid.UUID) ([]*Block, error)

	// ListOverlapping returns the vendor's blocks whose date range intersects
	// [startDate, endDate] inclusively.
	ListOverlapping(ctx context.Context, vendorID uuid.UUID, startDate, endDate time.Time) ([]*Block, error)

	// Delete removes the block by public id. Deleting an absent block is not
	// an error.
	Delete(ctx context.Context, publicID uuid.UUID) error
}
