package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/venuelink/service-booking/internal/adapter"
	"github.com/venuelink/service-booking/internal/domain/apperr"
	bookingDomain "github.com/venuelink/service-booking/internal/domain/booking"
	"github.com/venuelink/service-booking/internal/domain/catalog"
	paymentDomain "github.com/venuelink/service-booking/internal/domain/payment"
	"github.com/venuelink/service-booking/internal/events"
	"github.com/venuelink/service-booking/internal/saga"
	"github.com/venuelink/service-booking/pkg/kafka"
)

// OrderDTO is the response for a created gateway order. The client completes
// checkout against the gateway with this id.
type OrderDTO struct {
	GatewayOrderID string `json:"gateway_order_id"`
	Phase          string `json:"phase"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
}

// VerifyPaymentRequest is the gateway callback DTO.
type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"gateway_order_id" binding:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" binding:"required"`
	Signature        string `json:"signature" binding:"required"`
}

// PaymentResultDTO reports the settled installment.
type PaymentResultDTO struct {
	BookingID     uuid.UUID `json:"booking_id"`
	Phase         string    `json:"phase"`
	Amount        int64     `json:"amount"`
	BookingStatus string    `json:"booking_status"`
}

// SettlementService orchestrates the two-phase payment flow: order creation
// per installment and signed callback verification.
type SettlementService struct {
	bookings  bookingDomain.Repository
	payments  paymentDomain.Repository
	catalog   catalog.Service
	sagaSvc   *saga.SettlementSagaService
	gateway   adapter.GatewayAdapter
	invoices  adapter.InvoiceRenderer
	publisher EventPublisher
	logger    *zap.Logger
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(
	bookings bookingDomain.Repository,
	payments paymentDomain.Repository,
	catalogSvc catalog.Service,
	sagaSvc *saga.SettlementSagaService,
	gateway adapter.GatewayAdapter,
	invoices adapter.InvoiceRenderer,
	publisher EventPublisher,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		bookings:  bookings,
		payments:  payments,
		catalog:   catalogSvc,
		sagaSvc:   sagaSvc,
		gateway:   gateway,
		invoices:  invoices,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateOrder registers a gateway order for one installment of a confirmed
// booking. The amount always comes from the stored booking, never from the
// request.
func (s *SettlementService) CreateOrder(ctx context.Context, actorID, publicID uuid.UUID, phaseRaw string) (*OrderDTO, error) {
	phase, err := paymentDomain.ParsePhase(phaseRaw)
	if err != nil {
		return nil, err
	}

	b, err := s.bookings.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if !b.IsParty(actorID) {
		return nil, apperr.NewNotFoundError("booking", publicID.String())
	}
	if actorID != b.RequesterID() {
		return nil, apperr.NewForbiddenError("only the requester can pay for a booking")
	}
	if b.Status() != bookingDomain.StatusConfirmed {
		return nil, apperr.NewStateError(apperr.CodeInvalidState, "payments are only accepted for confirmed bookings")
	}

	amount, err := s.amountDue(ctx, b, phase)
	if err != nil {
		return nil, err
	}

	// Saga steps classify their own failures: the gateway step is Upstream,
	// a failed local save surfaces as an internal error.
	attempt, err := s.sagaSvc.CreateOrderSaga(ctx, b.ID(), b.PublicID().String(), phase, amount, b.Currency())
	if err != nil {
		return nil, err
	}

	return &OrderDTO{
		GatewayOrderID: attempt.GatewayOrderID(),
		Phase:          string(attempt.Phase()),
		Amount:         attempt.Amount(),
		Currency:       attempt.Currency(),
	}, nil
}

// amountDue enforces the phase ordering: the advance first, the remainder
// only after the advance settled, neither twice.
func (s *SettlementService) amountDue(ctx context.Context, b *bookingDomain.Booking, phase paymentDomain.Phase) (int64, error) {
	advanceSettled, err := s.phaseSettled(ctx, b.ID(), paymentDomain.PhaseAdvance)
	if err != nil {
		return 0, err
	}

	switch phase {
	case paymentDomain.PhaseAdvance:
		if advanceSettled {
			return 0, apperr.NewStateError(apperr.CodeInvalidState, "the advance installment is already settled")
		}
		return b.AdvanceAmount(), nil
	default:
		if !advanceSettled {
			return 0, apperr.NewStateError(apperr.CodeInvalidState, "the advance installment must be settled first")
		}
		remainingSettled, err := s.phaseSettled(ctx, b.ID(), paymentDomain.PhaseRemaining)
		if err != nil {
			return 0, err
		}
		if remainingSettled {
			return 0, apperr.NewStateError(apperr.CodeInvalidState, "the remaining installment is already settled")
		}
		return b.RemainingAmount(), nil
	}
}

func (s *SettlementService) phaseSettled(ctx context.Context, bookingID int64, phase paymentDomain.Phase) (bool, error) {
	_, err := s.payments.FindVerified(ctx, bookingID, phase)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// VerifyPayment settles an installment from the gateway's signed callback.
// Re-delivery of an already verified callback is acknowledged, not retried.
func (s *SettlementService) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*PaymentResultDTO, error) {
	attempt, err := s.payments.FindByGatewayOrderID(ctx, req.GatewayOrderID)
	if err != nil {
		return nil, err
	}

	b, err := s.bookings.FindByID(ctx, attempt.BookingID())
	if err != nil {
		return nil, err
	}

	if attempt.Verified() {
		return &PaymentResultDTO{
			BookingID:     b.PublicID(),
			Phase:         string(attempt.Phase()),
			Amount:        attempt.Amount(),
			BookingStatus: string(b.Status()),
		}, nil
	}

	if !s.gateway.VerifySignature(req.GatewayOrderID, req.GatewayPaymentID, req.Signature) {
		s.logger.Warn("payment signature mismatch",
			zap.String("gateway_order_id", req.GatewayOrderID),
		)
		return nil, apperr.NewSignatureError()
	}

	now := time.Now().UTC()
	attempt.Verify(req.GatewayPaymentID, now)
	won, err := s.payments.MarkVerified(ctx, attempt)
	if err != nil {
		return nil, err
	}
	if !won {
		// A concurrent callback settled it first; same outcome.
		return &PaymentResultDTO{
			BookingID:     b.PublicID(),
			Phase:         string(attempt.Phase()),
			Amount:        attempt.Amount(),
			BookingStatus: string(b.Status()),
		}, nil
	}

	s.logger.Info("payment verified",
		zap.String("booking_id", b.PublicID().String()),
		zap.String("phase", string(attempt.Phase())),
		zap.Int64("amount", attempt.Amount()),
	)

	eventType := events.AdvancePaid
	if attempt.Phase() == paymentDomain.PhaseRemaining {
		eventType = events.RemainingPaid
	}
	s.publish(ctx, events.TopicPaymentEvents, eventType, events.PaymentVerifiedEvent{
		BookingID:        b.PublicID(),
		VendorID:         b.VendorID(),
		RequesterID:      b.RequesterID(),
		Phase:            string(attempt.Phase()),
		Amount:           attempt.Amount(),
		Currency:         attempt.Currency(),
		GatewayPaymentID: attempt.GatewayPaymentID(),
		OccurredAt:       now,
	})

	go s.renderInvoice(b, attempt)

	if attempt.Phase() == paymentDomain.PhaseRemaining && b.Slot().EndsBefore(now) {
		if cerr := b.Complete(now); cerr == nil {
			b.IncrementVersion()
			if uerr := s.bookings.Update(ctx, b); uerr != nil {
				s.logger.Error("failed to complete booking after final payment",
					zap.String("booking_id", b.PublicID().String()), zap.Error(uerr))
			} else {
				s.publish(ctx, events.TopicBookingEvents, events.BookingComplete, events.BookingDecidedEvent{
					BookingID:   b.PublicID(),
					VendorID:    b.VendorID(),
					RequesterID: b.RequesterID(),
					Status:      string(b.Status()),
					OccurredAt:  now,
				})
			}
		}
	}

	return &PaymentResultDTO{
		BookingID:     b.PublicID(),
		Phase:         string(attempt.Phase()),
		Amount:        attempt.Amount(),
		BookingStatus: string(b.Status()),
	}, nil
}

// renderInvoice produces the installment receipt in the background. Invoice
// trouble never fails a verified payment.
func (s *SettlementService) renderInvoice(b *bookingDomain.Booking, attempt *paymentDomain.Attempt) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	productName := ""
	if product, err := s.catalog.GetProduct(ctx, b.ProductID()); err == nil {
		productName = product.Name
	}

	sl := b.Slot()
	pdf, err := s.invoices.RenderInvoice(adapter.InvoiceData{
		BookingRef:  b.PublicID().String(),
		ProductName: productName,
		StartDate:   sl.StartDate,
		EndDate:     sl.EndDate,
		Total:       b.TotalAmount(),
		Discount:    b.DiscountAmount(),
		Final:       b.FinalAmount(),
		Advance:     b.AdvanceAmount(),
		Remaining:   b.RemainingAmount(),
		Currency:    b.Currency(),
		PaidPhase:   string(attempt.Phase()),
		PaidAmount:  attempt.Amount(),
	})
	if err != nil {
		s.logger.Error("invoice rendering failed",
			zap.String("booking_id", b.PublicID().String()), zap.Error(err))
		return
	}
	s.logger.Info("invoice rendered",
		zap.String("booking_id", b.PublicID().String()),
		zap.String("phase", string(attempt.Phase())),
		zap.Int("bytes", len(pdf)),
	)
}

func (s *SettlementService) publish(ctx context.Context, topic, eventType string, data interface{}) {
	ce, err := kafka.NewCloudEvent(events.Source, eventType, data)
	if err != nil {
		s.logger.Error("failed to build event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := s.publisher.PublishEvent(ctx, topic, ce); err != nil {
		s.logger.Error("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}
