package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/venuelink/service-booking/internal/domain/apperr"
	bookingDomain "github.com/venuelink/service-booking/internal/domain/booking"
	calendarDomain "github.com/venuelink/service-booking/internal/domain/calendar"
)

// AddBlockRequest is the DTO for blocking out a date range.
type AddBlockRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Reason    string `json:"reason" binding:"max=500"`
}

// BlockDTO is the API response DTO for a calendar block.
type BlockDTO struct {
	ID        uuid.UUID `json:"id"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Reason    string    `json:"reason,omitempty"`
}

// CalendarService builds the vendor's merged calendar view and manages
// manual blocks.
type CalendarService struct {
	bookings bookingDomain.Repository
	blocks   calendarDomain.Repository
	cache    ViewCache
	logger   *zap.Logger
}

// NewCalendarService creates a new CalendarService.
func NewCalendarService(
	bookings bookingDomain.Repository,
	blocks calendarDomain.Repository,
	cache ViewCache,
	logger *zap.Logger,
) *CalendarService {
	return &CalendarService{bookings: bookings, blocks: blocks, cache: cache, logger: logger}
}

// GetCalendar returns the actor's merged view: bookings against their own
// calendar, bookings they made elsewhere, and their blocks. Served from the
// cache when fresh.
func (s *CalendarService) GetCalendar(ctx context.Context, actorID uuid.UUID) (*calendarDomain.View, error) {
	if view, ok := s.cache.Get(ctx, actorID); ok {
		return view, nil
	}

	forMe, err := s.bookings.ListForVendor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	byMe, err := s.bookings.ListByRequester(ctx, actorID)
	if err != nil {
		return nil, err
	}
	blocks, err := s.blocks.ListForVendor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	view := &calendarDomain.View{
		BookedForMe:  bookingEntries(forMe),
		BookedByMe:   bookingEntries(byMe),
		BlockedDates: blockEntries(blocks),
	}
	s.cache.Set(ctx, actorID, view)
	return view, nil
}

// AddBlock reserves a date range against new bookings. A range overlapping a
// CONFIRMED booking is refused.
func (s *CalendarService) AddBlock(ctx context.Context, vendorID uuid.UUID, req AddBlockRequest) (*BlockDTO, error) {
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}

	block, err := calendarDomain.NewBlock(vendorID, start, end, req.Reason)
	if err != nil {
		return nil, err
	}
	if err := s.blocks.CreateExclusive(ctx, block); err != nil {
		return nil, err
	}

	s.logger.Info("calendar range blocked",
		zap.String("vendor_id", vendorID.String()),
		zap.String("start", req.StartDate),
		zap.String("end", req.EndDate),
	)
	s.cache.Invalidate(ctx, vendorID)

	dto := toBlockDTO(block)
	return &dto, nil
}

// RemoveBlock deletes a block. Removing an absent block succeeds; removing
// someone else's block does not.
func (s *CalendarService) RemoveBlock(ctx context.Context, vendorID, blockID uuid.UUID) error {
	block, err := s.blocks.FindByPublicID(ctx, blockID)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return nil
		}
		return err
	}
	if block.VendorID() != vendorID {
		return apperr.NewForbiddenError("the block belongs to another vendor")
	}
	if err := s.blocks.Delete(ctx, blockID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, vendorID)
	return nil
}

func parseDate(raw string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return time.Time{}, apperr.NewValidationError("dates must be formatted as YYYY-MM-DD")
	}
	return t, nil
}

func bookingEntries(bookings []*bookingDomain.Booking) []calendarDomain.Entry {
	out := make([]calendarDomain.Entry, len(bookings))
	for i, b := range bookings {
		sl := b.Slot()
		final := b.FinalAmount()
		out[i] = calendarDomain.Entry{
			Source:      "booking",
			PublicID:    b.PublicID(),
			StartDate:   sl.StartDate,
			EndDate:     sl.EndDate,
			StartTime:   sl.StartTime,
			EndTime:     sl.EndTime,
			Status:      string(b.Status()),
			DecidedAt:   b.DecidedAt(),
			FinalAmount: &final,
		}
	}
	return out
}

func blockEntries(blocks []*calendarDomain.Block) []calendarDomain.Entry {
	out := make([]calendarDomain.Entry, len(blocks))
	for i, blk := range blocks {
		out[i] = calendarDomain.Entry{
			Source:    "block",
			PublicID:  blk.PublicID(),
			StartDate: blk.StartDate(),
			EndDate:   blk.EndDate(),
			Reason:    blk.Reason(),
		}
	}
	return out
}

func toBlockDTO(b *calendarDomain.Block) BlockDTO {
	return BlockDTO{
		ID:        b.PublicID(),
		StartDate: b.StartDate().Format("2006-01-02"),
		EndDate:   b.EndDate().Format("2006-01-02"),
		Reason:    b.Reason(),
	}
}
