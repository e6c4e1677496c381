package coupon

import "context"

// Repository defines persistence operations for coupons.
type Repository interface {
	Save(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error

	// FindActiveByCode returns the active coupon for the upper-cased code, or
	// a NotFound error when no active coupon matches.
	FindActiveByCode(ctx context.Context, code string) (*Coupon, error)

	// FindByCode ignores the active flag (admin operations).
	FindByCode(ctx context.Context, code string) (*Coupon, error)
}
