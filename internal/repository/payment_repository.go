package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/venuelink/service-booking/internal/domain/apperr"
	paymentDomain "github.com/venuelink/service-booking/internal/domain/payment"
)

// PaymentAttemptModel is the GORM persistence model for payment attempts.
type PaymentAttemptModel struct {
	ID               int64      `gorm:"primaryKey;autoIncrement"`
	BookingID        int64      `gorm:"index;not null"`
	Phase            string     `gorm:"type:varchar(10);not null"`
	GatewayOrderID   string     `gorm:"type:varchar(100);uniqueIndex;not null"`
	GatewayPaymentID string     `gorm:"type:varchar(100)"`
	Amount           int64      `gorm:"not null"`
	Currency         string     `gorm:"type:varchar(3);not null"`
	VerifiedAt       *time.Time `gorm:"type:timestamptz"`
	CreatedAt        time.Time  `gorm:"type:timestamptz;not null"`
}

// TableName specifies the table name for GORM.
func (PaymentAttemptModel) TableName() string { return "payment_attempts" }

// PaymentRepositoryImpl is the GORM-based implementation of the payment
// attempt repository.
type PaymentRepositoryImpl struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new GORM-based payment attempt repository.
func NewPaymentRepository(db *gorm.DB) *PaymentRepositoryImpl {
	return &PaymentRepositoryImpl{db: db}
}

// Save inserts a new payment attempt.
func (r *PaymentRepositoryImpl) Save(ctx context.Context, a *paymentDomain.Attempt) error {
	model := toAttemptModel(a)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	a.SetID(model.ID)
	return nil
}

// MarkVerified settles the attempt iff it is still unverified. The condition
// makes duplicate gateway callbacks a no-op at the storage level.
func (r *PaymentRepositoryImpl) MarkVerified(ctx context.Context, a *paymentDomain.Attempt) (bool, error) {
	res := r.db.WithContext(ctx).Model(&PaymentAttemptModel{}).
		Where("id = ? AND verified_at IS NULL", a.ID()).
		Updates(map[string]interface{}{
			"gateway_payment_id": a.GatewayPaymentID(),
			"verified_at":        a.VerifiedAt(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindByGatewayOrderID retrieves the attempt created for a gateway order.
func (r *PaymentRepositoryImpl) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*paymentDomain.Attempt, error) {
	var model PaymentAttemptModel
	if err := r.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFoundError("payment attempt", gatewayOrderID)
		}
		return nil, err
	}
	return toAttemptDomain(&model), nil
}

// FindVerified retrieves the settled attempt for a booking phase.
func (r *PaymentRepositoryImpl) FindVerified(ctx context.Context, bookingID int64, phase paymentDomain.Phase) (*paymentDomain.Attempt, error) {
	var model PaymentAttemptModel
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND phase = ? AND verified_at IS NOT NULL", bookingID, string(phase)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFoundError("verified payment", string(phase))
		}
		return nil, err
	}
	return toAttemptDomain(&model), nil
}

func toAttemptDomain(m *PaymentAttemptModel) *paymentDomain.Attempt {
	return paymentDomain.Reconstitute(
		m.ID, m.BookingID, paymentDomain.Phase(m.Phase),
		m.GatewayOrderID, m.GatewayPaymentID,
		m.Amount, m.Currency,
		m.VerifiedAt, m.CreatedAt,
	)
}

func toAttemptModel(a *paymentDomain.Attempt) *PaymentAttemptModel {
	return &PaymentAttemptModel{
		ID:               a.ID(),
		BookingID:        a.BookingID(),
		Phase:            string(a.Phase()),
		GatewayOrderID:   a.GatewayOrderID(),
		GatewayPaymentID: a.GatewayPaymentID(),
		Amount:           a.Amount(),
		Currency:         a.Currency(),
		VerifiedAt:       a.VerifiedAt(),
		CreatedAt:        a.CreatedAt(),
	}
}
