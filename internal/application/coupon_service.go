package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	couponDomain "github.com/venuelink/service-booking/internal/domain/coupon"
)

// ValidateCouponRequest is the DTO for previewing a coupon against an order
// amount.
type ValidateCouponRequest struct {
	Code        string `json:"code" binding:"required"`
	OrderAmount int64  `json:"order_amount" binding:"required,gt=0"`
}

// CouponQuoteDTO is the preview result.
type CouponQuoteDTO struct {
	Code           string `json:"code"`
	DiscountAmount int64  `json:"discount_amount"`
	FinalAmount    int64  `json:"final_amount"`
}

// CreateCouponRequest is the admin DTO for minting a coupon.
type CreateCouponRequest struct {
	Code        string     `json:"code" binding:"required"`
	Type        string     `json:"type" binding:"required,oneof=FLAT PERCENT UPTO"`
	Value       int64      `json:"value" binding:"required,gt=0"`
	MinAmount   int64      `json:"min_amount" binding:"gte=0"`
	MaxDiscount int64      `json:"max_discount" binding:"gte=0"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// CouponDTO is the API response DTO for coupon data.
type CouponDTO struct {
	Code        string     `json:"code"`
	Type        string     `json:"type"`
	Value       int64      `json:"value"`
	MinAmount   int64      `json:"min_amount"`
	MaxDiscount int64      `json:"max_discount,omitempty"`
	Active      bool       `json:"active"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// CouponService orchestrates coupon use cases.
type CouponService struct {
	coupons couponDomain.Repository
	logger  *zap.Logger
}

// NewCouponService creates a new CouponService.
func NewCouponService(coupons couponDomain.Repository, logger *zap.Logger) *CouponService {
	return &CouponService{coupons: coupons, logger: logger}
}

// ValidateCoupon previews the discount a coupon would yield. Unlike booking
// creation, an unusable coupon is a hard error here so the caller can show
// the reason.
func (s *CouponService) ValidateCoupon(ctx context.Context, req ValidateCouponRequest) (*CouponQuoteDTO, error) {
	c, err := s.coupons.FindActiveByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	discount, err := c.Discount(req.OrderAmount, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &CouponQuoteDTO{
		Code:           c.Code(),
		DiscountAmount: discount,
		FinalAmount:    req.OrderAmount - discount,
	}, nil
}

// CreateCoupon mints a new coupon (admin).
func (s *CouponService) CreateCoupon(ctx context.Context, req CreateCouponRequest) (*CouponDTO, error) {
	c, err := couponDomain.New(req.Code, couponDomain.Type(req.Type), req.Value, req.MinAmount, req.MaxDiscount, req.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if err := s.coupons.Save(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("coupon created", zap.String("code", c.Code()), zap.String("type", string(c.Type())))
	dto := toCouponDTO(c)
	return &dto, nil
}

// DeactivateCoupon retires a coupon (admin). Existing bookings keep their
// discount; only future applications are affected.
func (s *CouponService) DeactivateCoupon(ctx context.Context, code string) (*CouponDTO, error) {
	c, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	c.Deactivate()
	if err := s.coupons.Update(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("coupon deactivated", zap.String("code", c.Code()))
	dto := toCouponDTO(c)
	return &dto, nil
}

func toCouponDTO(c *couponDomain.Coupon) CouponDTO {
	return CouponDTO{
		Code:        c.Code(),
		Type:        string(c.Type()),
		Value:       c.Value(),
		MinAmount:   c.MinAmount(),
		MaxDiscount: c.MaxDiscount(),
		Active:      c.Active(),
		ExpiresAt:   c.ExpiresAt(),
	}
}
