package application

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/venuelink/service-booking/internal/domain/booking"
	calendarDomain "github.com/venuelink/service-booking/internal/domain/calendar"
	"github.com/venuelink/service-booking/internal/domain/slot"
)

// AvailabilityQuery is the DTO for a slot availability probe.
type AvailabilityQuery struct {
	BookingType string `form:"booking_type" binding:"required"`
	StartDate   string `form:"start_date" binding:"required"`
	EndDate     string `form:"end_date"`
	StartTime   string `form:"start_time"`
	EndTime     string `form:"end_time"`
}

// AvailabilityDTO is the probe result.
type AvailabilityDTO struct {
	Available bool `json:"available"`
}

// BlockedRangeDTO is one occupied range on a vendor's public calendar. It
// deliberately carries no booking details.
type BlockedRangeDTO struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

// AvailabilityService answers public calendar queries without exposing who
// occupies a slot.
type AvailabilityService struct {
	bookings bookingDomain.Repository
	blocks   calendarDomain.Repository
	logger   *zap.Logger
}

// NewAvailabilityService creates a new AvailabilityService.
func NewAvailabilityService(
	bookings bookingDomain.Repository,
	blocks calendarDomain.Repository,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{bookings: bookings, blocks: blocks, logger: logger}
}

// CheckAvailability reports whether the probed slot is free of CONFIRMED
// bookings and calendar blocks. The date query narrows candidates; slot
// overlap semantics decide.
func (s *AvailabilityService) CheckAvailability(ctx context.Context, vendorID uuid.UUID, q AvailabilityQuery) (*AvailabilityDTO, error) {
	sl, err := slot.Parse(q.BookingType, q.StartDate, q.EndDate, q.StartTime, q.EndTime)
	if err != nil {
		return nil, err
	}

	confirmed, err := s.bookings.ListConfirmedOverlapping(ctx, vendorID, sl)
	if err != nil {
		return nil, err
	}
	for _, b := range confirmed {
		if b.Slot().Overlaps(sl) {
			return &AvailabilityDTO{Available: false}, nil
		}
	}

	blocks, err := s.blocks.ListOverlapping(ctx, vendorID, sl.StartDate, sl.EndDate)
	if err != nil {
		return nil, err
	}
	for _, blk := range blocks {
		if blk.Slot().Overlaps(sl) {
			return &AvailabilityDTO{Available: false}, nil
		}
	}

	return &AvailabilityDTO{Available: true}, nil
}

// ListBlocked returns the vendor's occupied ranges, bookings and blocks
// merged, ordered by start date.
func (s *AvailabilityService) ListBlocked(ctx context.Context, vendorID uuid.UUID) ([]BlockedRangeDTO, error) {
	confirmed, err := s.bookings.ListConfirmedForVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	blocks, err := s.blocks.ListForVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	out := make([]BlockedRangeDTO, 0, len(confirmed)+len(blocks))
	for _, b := range confirmed {
		sl := b.Slot()
		out = append(out, BlockedRangeDTO{
			StartDate: sl.StartDate.Format("2006-01-02"),
			EndDate:   sl.EndDate.Format("2006-01-02"),
			StartTime: sl.StartTime,
			EndTime:   sl.EndTime,
		})
	}
	for _, blk := range blocks {
		out = append(out, BlockedRangeDTO{
			StartDate: blk.StartDate().Format("2006-01-02"),
			EndDate:   blk.EndDate().Format("2006-01-02"),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate != out[j].StartDate {
			return out[i].StartDate < out[j].StartDate
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}
