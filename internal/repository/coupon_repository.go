package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/venuelink/service-booking/internal/domain/apperr"
	couponDomain "github.com/venuelink/service-booking/internal/domain/coupon"
)

// CouponModel is the GORM persistence model for the coupons table.
type CouponModel struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"`
	Code        string     `gorm:"type:varchar(50);uniqueIndex;not null"`
	Type        string     `gorm:"type:varchar(10);not null"`
	Value       int64      `gorm:"not null"`
	MinAmount   int64      `gorm:"not null"`
	MaxDiscount int64      `gorm:"not null"`
	Active      bool       `gorm:"not null;default:true"`
	ExpiresAt   *time.Time `gorm:"type:timestamptz"`
	CreatedAt   time.Time  `gorm:"type:timestamptz;not null"`
	UpdatedAt   time.Time  `gorm:"type:timestamptz;not null"`
}

// TableName specifies the table name for GORM.
func (CouponModel) TableName() string { return "coupons" }

// CouponRepositoryImpl is the GORM-based implementation of the coupon
// repository.
type CouponRepositoryImpl struct {
	db *gorm.DB
}

// NewCouponRepository creates a new GORM-based coupon repository.
func NewCouponRepository(db *gorm.DB) *CouponRepositoryImpl {
	return &CouponRepositoryImpl{db: db}
}

// Save inserts a new coupon.
func (r *CouponRepositoryImpl) Save(ctx context.Context, c *couponDomain.Coupon) error {
	model := toCouponModel(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	c.SetID(model.ID)
	return nil
}

// Update persists the full coupon state.
func (r *CouponRepositoryImpl) Update(ctx context.Context, c *couponDomain.Coupon) error {
	return r.db.WithContext(ctx).Save(toCouponModel(c)).Error
}

// FindActiveByCode retrieves the active coupon matching the upper-cased code.
func (r *CouponRepositoryImpl) FindActiveByCode(ctx context.Context, code string) (*couponDomain.Coupon, error) {
	return r.findOne(ctx, "code = ? AND active = true", strings.ToUpper(code))
}

// FindByCode retrieves a coupon regardless of its active flag.
func (r *CouponRepositoryImpl) FindByCode(ctx context.Context, code string) (*couponDomain.Coupon, error) {
	return r.findOne(ctx, "code = ?", strings.ToUpper(code))
}

func (r *CouponRepositoryImpl) findOne(ctx context.Context, query string, code string) (*couponDomain.Coupon, error) {
	var model CouponModel
	if err := r.db.WithContext(ctx).Where(query, code).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFoundError("coupon", code)
		}
		return nil, err
	}
	return toCouponDomain(&model), nil
}

func toCouponDomain(m *CouponModel) *couponDomain.Coupon {
	return couponDomain.Reconstruct(
		m.ID, m.Code, couponDomain.Type(m.Type),
		m.Value, m.MinAmount, m.MaxDiscount,
		m.Active, m.ExpiresAt, m.CreatedAt, m.UpdatedAt,
	)
}

func toCouponModel(c *couponDomain.Coupon) *CouponModel {
	return &CouponModel{
		ID:          c.ID(),
		Code:        c.Code(),
		Type:        string(c.Type()),
		Value:       c.Value(),
		MinAmount:   c.MinAmount(),
		MaxDiscount: c.MaxDiscount(),
		Active:      c.Active(),
		ExpiresAt:   c.ExpiresAt(),
		CreatedAt:   c.CreatedAt(),
		UpdatedAt:   time.Now().UTC(),
	}
}
