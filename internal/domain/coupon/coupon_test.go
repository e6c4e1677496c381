package coupon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuelink/service-booking/internal/domain/apperr"
)

var now = time.Date(2031, 5, 1, 12, 0, 0, 0, time.UTC)

func mustCoupon(t *testing.T, code string, typ Type, value, minAmount, maxDiscount int64, expiresAt *time.Time) *Coupon {
	t.Helper()
	c, err := New(code, typ, value, minAmount, maxDiscount, expiresAt)
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	_, err := New("", TypeFlat, 100, 0, 0, nil)
	assert.Error(t, err, "empty code")

	_, err = New("X", "BOGOF", 100, 0, 0, nil)
	assert.Error(t, err, "unknown type")

	_, err = New("X", TypeFlat, 0, 0, 0, nil)
	assert.Error(t, err, "non-positive value")

	_, err = New("X", TypePercent, 101, 0, 0, nil)
	assert.Error(t, err, "percent above 100")

	_, err = New("X", TypeUpto, 1<<60, 0, 0, nil)
	assert.Error(t, err, "adversarially large percent")

	_, err = New("X", TypeFlat, 1<<60, 0, 0, nil)
	assert.NoError(t, err, "large flat values are legal, the order clamp applies")

	c := mustCoupon(t, "  summer10  ", TypePercent, 10, 0, 0, nil)
	assert.Equal(t, "SUMMER10", c.Code(), "codes are upper-cased and trimmed")
	assert.True(t, c.Active())
}

func TestDiscount_Flat(t *testing.T) {
	c := mustCoupon(t, "FLAT500", TypeFlat, 500, 0, 0, nil)

	d, err := c.Discount(10000, now)
	require.NoError(t, err)
	assert.Equal(t, int64(500), d)

	// A flat value larger than the order clamps to the order amount.
	d, err = c.Discount(300, now)
	require.NoError(t, err)
	assert.Equal(t, int64(300), d)
}

func TestDiscount_PercentRoundsHalfUp(t *testing.T) {
	c := mustCoupon(t, "PCT15", TypePercent, 15, 0, 0, nil)

	// 15% of 1003 = 150.45, rounds down.
	d, err := c.Discount(1003, now)
	require.NoError(t, err)
	assert.Equal(t, int64(150), d)

	// 15% of 1010 = 151.5, rounds up.
	d, err = c.Discount(1010, now)
	require.NoError(t, err)
	assert.Equal(t, int64(152), d)
}

func TestDiscount_UptoCapsPercent(t *testing.T) {
	c := mustCoupon(t, "UPTO20", TypeUpto, 20, 0, 1000, nil)

	// 20% of 4000 = 800, below the cap.
	d, err := c.Discount(4000, now)
	require.NoError(t, err)
	assert.Equal(t, int64(800), d)

	// 20% of 10000 = 2000, capped at 1000.
	d, err = c.Discount(10000, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), d)
}

func TestDiscount_NeverExceedsOrderAmount(t *testing.T) {
	// Stored rows may carry percent values the constructor no longer accepts.
	// Whatever the value, the discount stays within [0, orderAmount].
	legacy := Reconstruct(1, "HUGE", TypePercent, 1<<60, 0, 0, true, nil, now, now)

	d, err := legacy.Discount(1000, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), d)

	// 100% of an amount near the int64 ceiling must not wrap either.
	full := mustCoupon(t, "ALL", TypePercent, 100, 0, 0, nil)
	big := int64(1) << 62
	d, err = full.Discount(big, now)
	require.NoError(t, err)
	assert.Equal(t, big, d)
}

func TestDiscount_BelowMinimum(t *testing.T) {
	c := mustCoupon(t, "MIN5K", TypeFlat, 500, 5000, 0, nil)

	_, err := c.Discount(4999, now)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeCouponBelowMin, apperr.CodeOf(err))

	d, err := c.Discount(5000, now)
	require.NoError(t, err)
	assert.Equal(t, int64(500), d)
}

func TestDiscount_Expired(t *testing.T) {
	past := now.Add(-time.Hour)
	c := mustCoupon(t, "OLD", TypeFlat, 500, 0, 0, &past)

	_, err := c.Discount(10000, now)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeCouponExpired, apperr.CodeOf(err))
}

func TestDeactivate(t *testing.T) {
	c := mustCoupon(t, "RETIRE", TypeFlat, 500, 0, 0, nil)
	c.Deactivate()
	assert.False(t, c.Active())
}
