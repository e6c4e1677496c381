package coupon

import (
	"strings"
	"time"

	"github.com/venuelink/service-booking/internal/domain/apperr"
)

// Type represents the discount policy of a coupon.
type Type string

const (
	TypeFlat    Type = "FLAT"
	TypePercent Type = "PERCENT"
	TypeUpto    Type = "UPTO"
)

// Coupon is the aggregate root for promotional codes. Amounts are in the
// currency's minor unit. Coupons referenced by completed bookings are never
// deleted, only deactivated.
type Coupon struct {
	id          int64
	code        string
	couponType  Type
	value       int64
	minAmount   int64
	maxDiscount int64
	active      bool
	expiresAt   *time.Time
	createdAt   time.Time
	updatedAt   time.Time
}

// New creates a new coupon. The code is stored upper-cased so lookups are
// case-insensitive.
func New(code string, couponType Type, value, minAmount, maxDiscount int64, expiresAt *time.Time) (*Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, apperr.NewValidationError("coupon code is required")
	}
	if couponType != TypeFlat && couponType != TypePercent && couponType != TypeUpto {
		return nil, apperr.NewValidationError("coupon type must be FLAT, PERCENT or UPTO")
	}
	if value <= 0 {
		return nil, apperr.NewValidationError("coupon value must be positive")
	}
	if couponType != TypeFlat && value > 100 {
		return nil, apperr.NewValidationError("percent coupon value must not exceed 100")
	}
	if minAmount < 0 || maxDiscount < 0 {
		return nil, apperr.NewValidationError("coupon amounts must not be negative")
	}

	now := time.Now().UTC()
	return &Coupon{
		code:        code,
		couponType:  couponType,
		value:       value,
		minAmount:   minAmount,
		maxDiscount: maxDiscount,
		active:      true,
		expiresAt:   expiresAt,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstruct rebuilds a Coupon from persistence.
func Reconstruct(id int64, code string, couponType Type, value, minAmount, maxDiscount int64, active bool, expiresAt *time.Time, createdAt, updatedAt time.Time) *Coupon {
	return &Coupon{
		id: id, code: code, couponType: couponType, value: value,
		minAmount: minAmount, maxDiscount: maxDiscount, active: active,
		expiresAt: expiresAt, createdAt: createdAt, updatedAt: updatedAt,
	}
}

// Discount computes the discount for orderAmount at the given instant.
// PERCENT and UPTO round half-up to the minor unit. The result never exceeds
// orderAmount, whatever the coupon's value.
func (c *Coupon) Discount(orderAmount int64, now time.Time) (int64, error) {
	if c.expiresAt != nil && now.After(*c.expiresAt) {
		return 0, apperr.NewStateError(apperr.CodeCouponExpired, "coupon "+c.code+" has expired")
	}
	if c.minAmount > 0 && orderAmount < c.minAmount {
		return 0, apperr.NewStateError(apperr.CodeCouponBelowMin, "order amount is below the coupon minimum")
	}

	var discount int64
	switch c.couponType {
	case TypeFlat:
		discount = c.value
	case TypePercent:
		discount = percentOf(orderAmount, c.value)
	case TypeUpto:
		discount = percentOf(orderAmount, c.value)
		if c.maxDiscount > 0 && discount > c.maxDiscount {
			discount = c.maxDiscount
		}
	}

	// A stored value above 100 (possible for rows predating the constructor
	// check) can wrap percentOf negative; both cases mean the full amount.
	if discount < 0 || discount > orderAmount {
		discount = orderAmount
	}
	return discount, nil
}

// percentOf computes amount*value/100 rounded half-up. The amount is split
// so the product stays within int64 for any value up to 100.
func percentOf(amount, value int64) int64 {
	q, r := amount/100, amount%100
	return q*value + (r*value+50)/100
}

// Deactivate administratively retires the coupon.
func (c *Coupon) Deactivate() {
	c.active = false
	c.updatedAt = time.Now().UTC()
}

func (c *Coupon) SetID(id int64) { c.id = id }

// Getters.
func (c *Coupon) ID() int64            { return c.id }
func (c *Coupon) Code() string         { return c.code }
func (c *Coupon) Type() Type           { return c.couponType }
func (c *Coupon) Value() int64         { return c.value }
func (c *Coupon) MinAmount() int64     { return c.minAmount }
func (c *Coupon) MaxDiscount() int64   { return c.maxDiscount }
func (c *Coupon) Active() bool         { return c.active }
func (c *Coupon) ExpiresAt() *time.Time { return c.expiresAt }
func (c *Coupon) CreatedAt() time.Time { return c.createdAt }
func (c *Coupon) UpdatedAt() time.Time { return c.updatedAt }
