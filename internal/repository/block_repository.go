package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/venuelink/service-booking/internal/domain/apperr"
	bookingDomain "github.com/venuelink/service-booking/internal/domain/booking"
	calendarDomain "github.com/venuelink/service-booking/internal/domain/calendar"
)

// BlockModel is the GORM persistence model for vendor calendar blocks.
type BlockModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	PublicID  uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	VendorID  uuid.UUID `gorm:"type:uuid;index;not null"`
	StartDate time.Time `gorm:"type:date;not null;index"`
	EndDate   time.Time `gorm:"type:date;not null"`
	Reason    string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null"`
}

// TableName specifies the table name for GORM.
func (BlockModel) TableName() string { return "calendar_blocks" }

// BlockRepositoryImpl is the GORM-based implementation of the calendar block
// repository.
type BlockRepositoryImpl struct {
	db *gorm.DB
}

// NewBlockRepository creates a new GORM-based calendar block repository.
func NewBlockRepository(db *gorm.DB) *BlockRepositoryImpl {
	return &BlockRepositoryImpl{db: db}
}

// CreateExclusive inserts the block iff no CONFIRMED booking overlaps it,
// checked under the vendor calendar lock in the same transaction. Overlap
// with an existing block is allowed; removal stays per-block.
func (r *BlockRepositoryImpl) CreateExclusive(ctx context.Context, b *calendarDomain.Block) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockVendorCalendar(tx, b.VendorID()); err != nil {
			return err
		}
		var bookings []BookingModel
		err := tx.Where("vendor_id = ? AND status = ? AND start_date <= ? AND end_date >= ?",
			b.VendorID(), string(bookingDomain.StatusConfirmed), b.EndDate(), b.StartDate()).
			Find(&bookings).Error
		if err != nil {
			return err
		}
		blockSlot := b.Slot()
		for i := range bookings {
			if toBookingDomain(&bookings[i]).Slot().Overlaps(blockSlot) {
				return apperr.NewConflictError(apperr.CodeBlockOverlap, "a confirmed booking overlaps the blocked range")
			}
		}
		model := toBlockModel(b)
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		b.SetID(model.ID)
		return nil
	})
}

// FindByPublicID retrieves a block by its public identifier.
func (r *BlockRepositoryImpl) FindByPublicID(ctx context.Context, publicID uuid.UUID) (*calendarDomain.Block, error) {
	var model BlockModel
	if err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFoundError("calendar block", publicID.String())
		}
		return nil, err
	}
	return toBlockDomain(&model), nil
}

// ListForVendor returns the vendor's blocks ordered by start date.
func (r *BlockRepositoryImpl) ListForVendor(ctx context.Context, vendorID uuid.UUID) ([]*calendarDomain.Block, error) {
	var models []BlockModel
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("start_date ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toBlockDomainList(models), nil
}

// ListOverlapping returns the vendor's blocks intersecting the inclusive
// date range.
func (r *BlockRepositoryImpl) ListOverlapping(ctx context.Context, vendorID uuid.UUID, startDate, endDate time.Time) ([]*calendarDomain.Block, error) {
	var models []BlockModel
	err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND start_date <= ? AND end_date >= ?", vendorID, endDate, startDate).
		Order("start_date ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toBlockDomainList(models), nil
}

// Delete removes the block; deleting an absent block succeeds.
func (r *BlockRepositoryImpl) Delete(ctx context.Context, publicID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("public_id = ?", publicID).Delete(&BlockModel{}).Error
}

func toBlockDomainList(models []BlockModel) []*calendarDomain.Block {
	out := make([]*calendarDomain.Block, len(models))
	for i := range models {
		out[i] = toBlockDomain(&models[i])
	}
	return out
}

func toBlockDomain(m *BlockModel) *calendarDomain.Block {
	return calendarDomain.Reconstitute(
		m.ID, m.PublicID, m.VendorID,
		normalizeDate(m.StartDate), normalizeDate(m.EndDate),
		m.Reason, m.CreatedAt,
	)
}

func toBlockModel(b *calendarDomain.Block) *BlockModel {
	return &BlockModel{
		ID:        b.ID(),
		PublicID:  b.PublicID(),
		VendorID:  b.VendorID(),
		StartDate: b.StartDate(),
		EndDate:   b.EndDate(),
		Reason:    b.Reason(),
		CreatedAt: b.CreatedAt(),
	}
}
