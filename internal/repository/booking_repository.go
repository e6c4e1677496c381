package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/venuelink/service-booking/internal/domain/apperr"
	bookingDomain "github.com/venuelink/service-booking/internal/domain/booking"
	"github.com/venuelink/service-booking/internal/domain/slot"
)

// BookingModel is the GORM persistence model for the bookings table.
type BookingModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	PublicID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	VendorID    uuid.UUID `gorm:"type:uuid;index;not null"`
	RequesterID uuid.UUID `gorm:"type:uuid;index;not null"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null"`

	BookingType string    `gorm:"type:varchar(20);not null"`
	StartDate   time.Time `gorm:"type:date;not null;index"`
	EndDate     time.Time `gorm:"type:date;not null"`
	StartTime   string    `gorm:"type:varchar(5)"`
	EndTime     string    `gorm:"type:varchar(5)"`

	TotalAmount     int64  `gorm:"not null"`
	DiscountAmount  int64  `gorm:"not null"`
	FinalAmount     int64  `gorm:"not null"`
	AdvanceAmount   int64  `gorm:"not null"`
	RemainingAmount int64  `gorm:"not null"`
	CouponCode      string `gorm:"type:varchar(50)"`
	Currency        string `gorm:"type:varchar(3);not null"`

	Status    string     `gorm:"type:varchar(20);not null;index"`
	Notes     string     `gorm:"type:text"`
	CreatedAt time.Time  `gorm:"type:timestamptz;not null"`
	ExpiresAt time.Time  `gorm:"type:timestamptz;not null;index"`
	DecidedAt *time.Time `gorm:"type:timestamptz"`
	Version   int64      `gorm:"not null;default:1"`
	UpdatedAt time.Time  `gorm:"type:timestamptz;not null"`
}

// TableName specifies the table name for GORM.
func (BookingModel) TableName() string { return "bookings" }

// BookingRepositoryImpl is the GORM-based implementation of the booking
// repository.
type BookingRepositoryImpl struct {
	db *gorm.DB
}

// NewBookingRepository creates a new GORM-based booking repository.
func NewBookingRepository(db *gorm.DB) *BookingRepositoryImpl {
	return &BookingRepositoryImpl{db: db}
}

// lockVendorCalendar serializes calendar mutations per vendor for the rest of
// the transaction. Row locks alone cannot exclude two transactions inserting
// overlapping rows that neither can see yet.
func lockVendorCalendar(tx *gorm.DB, vendorID uuid.UUID) error {
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", vendorID.String()).Error
}

// slotTaken reports whether s overlaps a CONFIRMED booking (other than
// excludeID) or a calendar block for the vendor. Must run inside a
// transaction holding the vendor calendar lock.
func slotTaken(tx *gorm.DB, vendorID uuid.UUID, s slot.Slot, excludeID int64) (bool, error) {
	var bookings []BookingModel
	q := tx.Where("vendor_id = ? AND status = ? AND start_date <= ? AND end_date >= ?",
		vendorID, string(bookingDomain.StatusConfirmed), s.EndDate, s.StartDate)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Find(&bookings).Error; err != nil {
		return false, err
	}
	for i := range bookings {
		if toBookingDomain(&bookings[i]).Slot().Overlaps(s) {
			return true, nil
		}
	}

	var blocks []BlockModel
	if err := tx.Where("vendor_id = ? AND start_date <= ? AND end_date >= ?",
		vendorID, s.EndDate, s.StartDate).Find(&blocks).Error; err != nil {
		return false, err
	}
	for i := range blocks {
		if slot.FromDates(normalizeDate(blocks[i].StartDate), normalizeDate(blocks[i].EndDate)).Overlaps(s) {
			return true, nil
		}
	}
	return false, nil
}

// CreateExclusive inserts a PENDING booking iff the slot is free, as one
// atomic unit.
func (r *BookingRepositoryImpl) CreateExclusive(ctx context.Context, b *bookingDomain.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockVendorCalendar(tx, b.VendorID()); err != nil {
			return err
		}
		taken, err := slotTaken(tx, b.VendorID(), b.Slot(), 0)
		if err != nil {
			return err
		}
		if taken {
			return apperr.NewConflictError(apperr.CodeSlotUnavailable, "the requested slot is no longer available")
		}
		model := toBookingModel(b)
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		b.SetID(model.ID)
		return nil
	})
}

// ConfirmExclusive persists an approval iff the slot is still free,
// re-checked under the vendor calendar lock. The status precondition is
// enforced by the conditional update itself so a concurrent sweep or decide
// surfaces as ALREADY_DECIDED rather than a silent overwrite.
func (r *BookingRepositoryImpl) ConfirmExclusive(ctx context.Context, b *bookingDomain.Booking) (bool, error) {
	conflict := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockVendorCalendar(tx, b.VendorID()); err != nil {
			return err
		}
		taken, err := slotTaken(tx, b.VendorID(), b.Slot(), b.ID())
		if err != nil {
			return err
		}
		if taken {
			conflict = true
			return nil
		}
		res := tx.Model(&BookingModel{}).
			Where("id = ? AND status = ? AND version = ?", b.ID(), string(bookingDomain.StatusPending), b.Version()-1).
			Updates(map[string]interface{}{
				"status":     string(b.Status()),
				"decided_at": b.DecidedAt(),
				"version":    b.Version(),
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NewStateError(apperr.CodeAlreadyDecided, "booking was decided by another transaction")
		}
		return nil
	})
	return conflict, err
}

// Update persists aggregate changes with optimistic locking.
func (r *BookingRepositoryImpl) Update(ctx context.Context, b *bookingDomain.Booking) error {
	res := r.db.WithContext(ctx).Model(&BookingModel{}).
		Where("id = ? AND version = ?", b.ID(), b.Version()-1).
		Updates(map[string]interface{}{
			"status":     string(b.Status()),
			"notes":      b.Notes(),
			"decided_at": b.DecidedAt(),
			"version":    b.Version(),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NewStateError(apperr.CodeAlreadyDecided, "booking was modified by another transaction")
	}
	return nil
}

// FindByPublicID retrieves a booking by its public opaque identifier.
func (r *BookingRepositoryImpl) FindByPublicID(ctx context.Context, publicID uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFoundError("booking", publicID.String())
		}
		return nil, err
	}
	return toBookingDomain(&model), nil
}

// FindByID retrieves a booking by its surrogate id.
func (r *BookingRepositoryImpl) FindByID(ctx context.Context, id int64) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFoundError("booking", "")
		}
		return nil, err
	}
	return toBookingDomain(&model), nil
}

// ListConfirmedOverlapping returns CONFIRMED bookings whose date range
// intersects s.
func (r *BookingRepositoryImpl) ListConfirmedOverlapping(ctx context.Context, vendorID uuid.UUID, s slot.Slot) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND status = ? AND start_date <= ? AND end_date >= ?",
			vendorID, string(bookingDomain.StatusConfirmed), s.EndDate, s.StartDate).
		Order("start_date ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toBookingDomainList(models), nil
}

// ListConfirmedForVendor returns the vendor's CONFIRMED bookings.
func (r *BookingRepositoryImpl) ListConfirmedForVendor(ctx context.Context, vendorID uuid.UUID) ([]*bookingDomain.Booking, error) {
	return r.listByColumn(ctx, "vendor_id", vendorID, []string{string(bookingDomain.StatusConfirmed)})
}

// ListForVendor returns the vendor's non-terminal bookings as service owner.
func (r *BookingRepositoryImpl) ListForVendor(ctx context.Context, vendorID uuid.UUID) ([]*bookingDomain.Booking, error) {
	return r.listByColumn(ctx, "vendor_id", vendorID, liveStatuses())
}

// ListByRequester returns the actor's non-terminal bookings made elsewhere.
func (r *BookingRepositoryImpl) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*bookingDomain.Booking, error) {
	return r.listByColumn(ctx, "requester_id", requesterID, liveStatuses())
}

func liveStatuses() []string {
	return []string{
		string(bookingDomain.StatusPending),
		string(bookingDomain.StatusConfirmed),
		string(bookingDomain.StatusCompleted),
	}
}

func (r *BookingRepositoryImpl) listByColumn(ctx context.Context, column string, id uuid.UUID, statuses []string) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	err := r.db.WithContext(ctx).
		Where(column+" = ? AND status IN ?", id, statuses).
		Order("start_date ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toBookingDomainList(models), nil
}

// ExpireDue transitions overdue PENDING bookings to EXPIRED in one
// conditional update.
func (r *BookingRepositoryImpl) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&BookingModel{}).
		Where("status = ? AND expires_at < ?", string(bookingDomain.StatusPending), now).
		Updates(map[string]interface{}{
			"status":     string(bookingDomain.StatusExpired),
			"decided_at": now,
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

// normalizeDate strips any time component the driver attached to a DATE
// column so domain comparisons stay date-only.
func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func toBookingDomainList(models []BookingModel) []*bookingDomain.Booking {
	out := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		out[i] = toBookingDomain(&models[i])
	}
	return out
}

// toBookingDomain maps a BookingModel to the domain aggregate.
func toBookingDomain(m *BookingModel) *bookingDomain.Booking {
	s := slot.Slot{
		Kind:      slot.Kind(m.BookingType),
		StartDate: normalizeDate(m.StartDate),
		EndDate:   normalizeDate(m.EndDate),
		StartTime: m.StartTime,
		EndTime:   m.EndTime,
	}
	return bookingDomain.Reconstitute(
		m.ID,
		m.PublicID, m.VendorID, m.RequesterID, m.ProductID,
		s,
		m.TotalAmount, m.DiscountAmount, m.FinalAmount, m.AdvanceAmount, m.RemainingAmount,
		m.CouponCode, m.Currency,
		bookingDomain.Status(m.Status),
		m.Notes,
		m.CreatedAt, m.ExpiresAt,
		m.DecidedAt,
		m.Version,
	)
}

// toBookingModel maps the domain aggregate to its persistence model.
func toBookingModel(b *bookingDomain.Booking) *BookingModel {
	s := b.Slot()
	return &BookingModel{
		ID:              b.ID(),
		PublicID:        b.PublicID(),
		VendorID:        b.VendorID(),
		RequesterID:     b.RequesterID(),
		ProductID:       b.ProductID(),
		BookingType:     string(s.Kind),
		StartDate:       s.StartDate,
		EndDate:         s.EndDate,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		TotalAmount:     b.TotalAmount(),
		DiscountAmount:  b.DiscountAmount(),
		FinalAmount:     b.FinalAmount(),
		AdvanceAmount:   b.AdvanceAmount(),
		RemainingAmount: b.RemainingAmount(),
		CouponCode:      b.CouponCode(),
		Currency:        b.Currency(),
		Status:          string(b.Status()),
		Notes:           b.Notes(),
		CreatedAt:       b.CreatedAt(),
		ExpiresAt:       b.ExpiresAt(),
		DecidedAt:       b.DecidedAt(),
		Version:         b.Version(),
		UpdatedAt:       time.Now().UTC(),
	}
}
