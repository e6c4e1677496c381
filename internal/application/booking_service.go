package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/venuelink/service-booking/internal/domain/apperr"
	bookingDomain "github.com/venuelink/service-booking/internal/domain/booking"
	"github.com/venuelink/service-booking/internal/domain/catalog"
	couponDomain "github.com/venuelink/service-booking/internal/domain/coupon"
	"github.com/venuelink/service-booking/internal/domain/slot"
	"github.com/venuelink/service-booking/internal/events"
	"github.com/venuelink/service-booking/pkg/kafka"
)

// CreateBookingRequest is the DTO for requesting a new booking.
type CreateBookingRequest struct {
	VendorID    uuid.UUID `json:"vendor_id" binding:"required"`
	ProductID   uuid.UUID `json:"product_id" binding:"required"`
	BookingType string    `json:"booking_type" binding:"required"`
	StartDate   string    `json:"start_date" binding:"required"`
	EndDate     string    `json:"end_date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	CouponCode  string    `json:"coupon_code"`
}

// DecideBookingRequest is the DTO for the vendor's decision.
type DecideBookingRequest struct {
	Action string `json:"action" binding:"required,oneof=APPROVE REJECT"`
}

// NotesRequest is the DTO for attaching shared notes to a booking.
type NotesRequest struct {
	Notes string `json:"notes" binding:"required,max=2000"`
}

// BookingDTO is the API response DTO for booking data.
type BookingDTO struct {
	ID              uuid.UUID  `json:"id"`
	VendorID        uuid.UUID  `json:"vendor_id"`
	RequesterID     uuid.UUID  `json:"requester_id"`
	ProductID       uuid.UUID  `json:"product_id"`
	BookingType     string     `json:"booking_type"`
	StartDate       string     `json:"start_date"`
	EndDate         string     `json:"end_date"`
	StartTime       string     `json:"start_time,omitempty"`
	EndTime         string     `json:"end_time,omitempty"`
	TotalAmount     int64      `json:"total_amount"`
	DiscountAmount  int64      `json:"discount_amount"`
	FinalAmount     int64      `json:"final_amount"`
	AdvanceAmount   int64      `json:"advance_amount"`
	RemainingAmount int64      `json:"remaining_amount"`
	CouponCode      string     `json:"coupon_code,omitempty"`
	Currency        string     `json:"currency"`
	Status          string     `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ExpiresAt       time.Time  `json:"expires_at"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
}

// CreateBookingResponse wraps the created booking with an optional warning
// when the supplied coupon could not be applied.
type CreateBookingResponse struct {
	Booking       BookingDTO `json:"booking"`
	CouponWarning string     `json:"coupon_warning,omitempty"`
}

// BookingService orchestrates the booking lifecycle use cases.
type BookingService struct {
	bookings       bookingDomain.Repository
	coupons        couponDomain.Repository
	catalog        catalog.Service
	publisher      EventPublisher
	cache          ViewCache
	approvalWindow time.Duration
	currency       string
	logger         *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings bookingDomain.Repository,
	coupons couponDomain.Repository,
	catalogSvc catalog.Service,
	publisher EventPublisher,
	cache ViewCache,
	approvalWindow time.Duration,
	currency string,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings:       bookings,
		coupons:        coupons,
		catalog:        catalogSvc,
		publisher:      publisher,
		cache:          cache,
		approvalWindow: approvalWindow,
		currency:       currency,
		logger:         logger,
	}
}

// CreateBooking prices the slot against the product, applies the coupon when
// one is supplied, and inserts a PENDING booking iff the slot is free. An
// unusable coupon degrades to a warning; it never fails the booking.
func (s *BookingService) CreateBooking(ctx context.Context, requesterID uuid.UUID, req CreateBookingRequest) (*CreateBookingResponse, error) {
	sl, err := slot.Parse(req.BookingType, req.StartDate, req.EndDate, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	product, err := s.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product.VendorID != req.VendorID {
		return nil, apperr.NewValidationError("product does not belong to the given vendor")
	}

	total := product.PriceFor(sl)
	now := time.Now().UTC()

	var discount int64
	var couponCode, couponWarning string
	if req.CouponCode != "" {
		discount, couponCode, couponWarning = s.applyCoupon(ctx, req.CouponCode, total, now)
	}

	final := total - discount
	advance := product.AdvanceFor(final)
	currency := product.Currency
	if currency == "" {
		currency = s.currency
	}

	b, err := bookingDomain.New(req.VendorID, requesterID, req.ProductID, sl,
		total, discount, advance, couponCode, currency, s.approvalWindow)
	if err != nil {
		return nil, err
	}

	if err := s.bookings.CreateExclusive(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", b.PublicID().String()),
		zap.String("vendor_id", b.VendorID().String()),
		zap.Int64("final_amount", b.FinalAmount()),
	)

	s.publish(ctx, events.TopicBookingEvents, events.BookingCreated, events.BookingCreatedEvent{
		BookingID:   b.PublicID(),
		VendorID:    b.VendorID(),
		RequesterID: b.RequesterID(),
		StartDate:   sl.StartDate,
		EndDate:     sl.EndDate,
		FinalAmount: b.FinalAmount(),
		ExpiresAt:   b.ExpiresAt(),
		OccurredAt:  now,
	})
	s.cache.Invalidate(ctx, b.VendorID(), b.RequesterID())

	return &CreateBookingResponse{Booking: toBookingDTO(b), CouponWarning: couponWarning}, nil
}

// applyCoupon resolves a coupon code to a discount. Any failure is reported
// as a warning string and a zero discount.
func (s *BookingService) applyCoupon(ctx context.Context, code string, total int64, now time.Time) (int64, string, string) {
	c, err := s.coupons.FindActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return 0, "", "coupon not found or inactive"
		}
		s.logger.Warn("coupon lookup failed", zap.String("code", code), zap.Error(err))
		return 0, "", "coupon could not be applied"
	}
	discount, err := c.Discount(total, now)
	if err != nil {
		var de *apperr.DomainError
		if errors.As(err, &de) {
			return 0, "", de.Message
		}
		return 0, "", "coupon could not be applied"
	}
	return discount, c.Code(), ""
}

// DecideBooking applies the vendor's APPROVE or REJECT. Approval re-checks
// slot availability atomically; losing that race auto-rejects the booking
// and reports CONFLICT_AT_APPROVAL.
func (s *BookingService) DecideBooking(ctx context.Context, actorID, publicID uuid.UUID, req DecideBookingRequest) (*BookingDTO, error) {
	b, err := s.bookings.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if b.VendorID() != actorID {
		return nil, apperr.NewNotFoundError("booking", publicID.String())
	}

	now := time.Now().UTC()
	if b.Status() == bookingDomain.StatusPending && b.IsExpired(now) {
		s.lazyExpire(ctx, b, now)
		return nil, apperr.NewStateError(apperr.CodeExpired, "the approval window for this booking has lapsed")
	}

	switch req.Action {
	case "APPROVE":
		return s.approve(ctx, b, now)
	case "REJECT":
		if err := b.Reject(now); err != nil {
			return nil, err
		}
		b.IncrementVersion()
		if err := s.bookings.Update(ctx, b); err != nil {
			return nil, err
		}
	default:
		return nil, apperr.NewValidationError("action must be APPROVE or REJECT")
	}

	s.publishDecision(ctx, b, now)
	s.cache.Invalidate(ctx, b.VendorID(), b.RequesterID())
	dto := toBookingDTO(b)
	return &dto, nil
}

func (s *BookingService) approve(ctx context.Context, b *bookingDomain.Booking, now time.Time) (*BookingDTO, error) {
	if err := b.Approve(now); err != nil {
		return nil, err
	}
	b.IncrementVersion()

	conflict, err := s.bookings.ConfirmExclusive(ctx, b)
	if err != nil {
		return nil, err
	}
	if conflict {
		// The slot was taken between creation and approval. The booking row
		// is still PENDING; reject it so the requester is told.
		fresh, ferr := s.bookings.FindByID(ctx, b.ID())
		if ferr != nil {
			return nil, ferr
		}
		if rerr := fresh.Reject(now); rerr == nil {
			fresh.IncrementVersion()
			if uerr := s.bookings.Update(ctx, fresh); uerr != nil {
				s.logger.Error("auto-reject after approval conflict failed",
					zap.String("booking_id", fresh.PublicID().String()), zap.Error(uerr))
			} else {
				s.publishDecision(ctx, fresh, now)
				s.cache.Invalidate(ctx, fresh.VendorID(), fresh.RequesterID())
			}
		}
		return nil, apperr.NewConflictError(apperr.CodeConflictAtApproval,
			"the slot was taken by another booking before approval")
	}

	s.logger.Info("booking confirmed", zap.String("booking_id", b.PublicID().String()))
	s.publishDecision(ctx, b, now)
	s.cache.Invalidate(ctx, b.VendorID(), b.RequesterID())
	dto := toBookingDTO(b)
	return &dto, nil
}

// lazyExpire persists an overdue PENDING booking as EXPIRED on read. A lost
// race here means someone else already transitioned it, which is fine.
func (s *BookingService) lazyExpire(ctx context.Context, b *bookingDomain.Booking, now time.Time) {
	if err := b.Expire(now); err != nil {
		return
	}
	b.IncrementVersion()
	if err := s.bookings.Update(ctx, b); err != nil && !errors.Is(err, apperr.ErrState) {
		s.logger.Warn("lazy expire failed", zap.String("booking_id", b.PublicID().String()), zap.Error(err))
	}
	s.cache.Invalidate(ctx, b.VendorID(), b.RequesterID())
}

// SaveNotes attaches shared planning notes to a confirmed booking. The
// domain enforces that the actor is a party and the state allows notes.
func (s *BookingService) SaveNotes(ctx context.Context, actorID, publicID uuid.UUID, req NotesRequest) (*BookingDTO, error) {
	b, err := s.bookings.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if !b.IsParty(actorID) {
		return nil, apperr.NewNotFoundError("booking", publicID.String())
	}
	if err := b.SetNotes(actorID, req.Notes); err != nil {
		return nil, err
	}
	b.IncrementVersion()
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}
	dto := toBookingDTO(b)
	return &dto, nil
}

// GetBooking returns a booking visible only to its two parties. An overdue
// PENDING booking is expired on read.
func (s *BookingService) GetBooking(ctx context.Context, actorID, publicID uuid.UUID) (*BookingDTO, error) {
	b, err := s.bookings.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if !b.IsParty(actorID) {
		return nil, apperr.NewNotFoundError("booking", publicID.String())
	}
	now := time.Now().UTC()
	if b.Status() == bookingDomain.StatusPending && b.IsExpired(now) {
		s.lazyExpire(ctx, b, now)
	}
	dto := toBookingDTO(b)
	return &dto, nil
}

// SweepExpired transitions all overdue PENDING bookings to EXPIRED. Run on a
// schedule; safe to run concurrently with itself and with decisions.
func (s *BookingService) SweepExpired(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	n, err := s.bookings.ExpireDue(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired overdue bookings", zap.Int64("count", n))
		s.publish(ctx, events.TopicBookingEvents, events.BookingExpired, events.BookingExpiredEvent{
			Count:      n,
			OccurredAt: now,
		})
	}
	return n, nil
}

// publish sends a domain event; failures are logged, never propagated, so
// notification trouble cannot affect booking state.
func (s *BookingService) publish(ctx context.Context, topic, eventType string, data interface{}) {
	ce, err := kafka.NewCloudEvent(events.Source, eventType, data)
	if err != nil {
		s.logger.Error("failed to build event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := s.publisher.PublishEvent(ctx, topic, ce); err != nil {
		s.logger.Error("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}

func (s *BookingService) publishDecision(ctx context.Context, b *bookingDomain.Booking, now time.Time) {
	s.publish(ctx, events.TopicBookingEvents, events.BookingDecided, events.BookingDecidedEvent{
		BookingID:   b.PublicID(),
		VendorID:    b.VendorID(),
		RequesterID: b.RequesterID(),
		Status:      string(b.Status()),
		OccurredAt:  now,
	})
}

// toBookingDTO maps the aggregate to its API shape.
func toBookingDTO(b *bookingDomain.Booking) BookingDTO {
	sl := b.Slot()
	return BookingDTO{
		ID:              b.PublicID(),
		VendorID:        b.VendorID(),
		RequesterID:     b.RequesterID(),
		ProductID:       b.ProductID(),
		BookingType:     string(sl.Kind),
		StartDate:       sl.StartDate.Format("2006-01-02"),
		EndDate:         sl.EndDate.Format("2006-01-02"),
		StartTime:       sl.StartTime,
		EndTime:         sl.EndTime,
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
	}
}
