package payment

import "context"

// Repository defines the persistence contract for payment attempts.
type Repository interface {
	Save(ctx context.Context, a *Attempt) error

	// MarkVerified persists a Verify transition conditionally on the attempt
	// still being unverified. Returns false when a concurrent verification won
	// the race; the caller should reload and treat the attempt as settled.
	MarkVerified(ctx context.Context, a *Attempt) (bool, error)

	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Attempt, error)

	// FindVerified returns the verified attempt for a booking phase, or a
	// NotFound error when the phase has not been settled.
	FindVerified(ctx context.Context, bookingID int64, phase Phase) (*Attempt, error)
}
