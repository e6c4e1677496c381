package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/venuelink/service-booking/internal/adapter"
	"github.com/venuelink/service-booking/internal/domain/apperr"
	bookingDomain "github.com/venuelink/service-booking/internal/domain/booking"
	"github.com/venuelink/service-booking/internal/domain/catalog"
	"github.com/venuelink/service-booking/internal/events"
	"github.com/venuelink/service-booking/internal/saga"
)

const testGatewaySecret = "test-secret"

type settlementStack struct {
	svc       *SettlementService
	bookings  *fakeBookingRepo
	payments  *fakePaymentRepo
	publisher *recordingPublisher
	invoices  *fakeInvoiceRenderer
}

func newSettlementStack(t *testing.T) *settlementStack {
	t.Helper()
	log := zap.NewNop()
	bookings := newFakeBookingRepo()
	payments := newFakePaymentRepo()
	publisher := &recordingPublisher{}
	invoices := &fakeInvoiceRenderer{}
	gateway := adapter.NewMockGatewayAdapter(testGatewaySecret, log)
	sagaSvc := saga.NewSettlementSagaService(payments, gateway, log)
	cat := &fakeCatalog{products: map[uuid.UUID]*catalog.Product{}}

	svc := NewSettlementService(bookings, payments, cat, sagaSvc, gateway, invoices, publisher, log)
	return &settlementStack{svc: svc, bookings: bookings, payments: payments, publisher: publisher, invoices: invoices}
}

// seedConfirmed stores a CONFIRMED booking with 6000 final, 1800 advance.
func (st *settlementStack) seedConfirmed(t *testing.T, start, end string) *bookingDomain.Booking {
	t.Helper()
	now := time.Now().UTC()
	decided := now.Add(-time.Hour)
	b := bookingDomain.Reconstitute(
		0, uuid.New(), uuid.New(), uuid.New(), uuid.New(),
		mustSlot(t, start, end),
		6000, 0, 6000, 1800, 4200, "", "INR",
		bookingDomain.StatusConfirmed, "",
		now.Add(-2*time.Hour), now.Add(time.Hour), &decided, 2,
	)
	return st.bookings.seed(b)
}

func (st *settlementStack) verify(t *testing.T, orderID, paymentID string) (*PaymentResultDTO, error) {
	t.Helper()
	return st.svc.VerifyPayment(context.Background(), VerifyPaymentRequest{
		GatewayOrderID:   orderID,
		GatewayPaymentID: paymentID,
		Signature:        adapter.Sign(orderID, paymentID, testGatewaySecret),
	})
}

func TestCreateOrder_AdvanceAmountFromBooking(t *testing.T) {
	st := newSettlementStack(t)
	b := st.seedConfirmed(t, "2031-05-10", "2031-05-12")

	dto, err := st.svc.CreateOrder(context.Background(), b.RequesterID(), b.PublicID(), "ADVANCE")
	require.NoError(t, err)
	assert.Equal(t, int64(1800), dto.Amount)
	assert.Equal(t, "ADVANCE", dto.Phase)
	assert.Equal(t, "INR", dto.Currency)
	assert.NotEmpty(t, dto.GatewayOrderID)
}

func TestCreateOrder_Permissions(t *testing.T) {
	st := newSettlementStack(t)
	b := st.seedConfirmed(t, "2031-05-10", "2031-05-12")

	_, err := st.svc.CreateOrder(context.Background(), uuid.New(), b.PublicID(), "ADVANCE")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err), "strangers learn nothing")

	_, err = st.svc.CreateOrder(context.Background(), b.VendorID(), b.PublicID(), "ADVANCE")
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err), "the vendor does not pay")
}

func TestCreateOrder_RequiresConfirmedBooking(t *testing.T) {
	st := newSettlementStack(t)
	requester := uuid.New()
	b, err := bookingDomain.New(uuid.New(), requester, uuid.New(),
		mustSlot(t, "2031-05-10", "2031-05-12"), 6000, 0, 1800, "", "INR", 3*time.Hour)
	require.NoError(t, err)
	st.bookings.seed(b)

	_, err = st.svc.CreateOrder(context.Background(), requester, b.PublicID(), "ADVANCE")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))
}

func TestCreateOrder_RemainingRequiresSettledAdvance(t *testing.T) {
	st := newSettlementStack(t)
	b := st.seedConfirmed(t, "2031-05-10", "2031-05-12")

	_, err := st.svc.CreateOrder(context.Background(), b.RequesterID(), b.PublicID(), "REMAINING")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))

	adv, err := st.svc.CreateOrder(context.Background(), b.RequesterID(), b.PublicID(), "ADVANCE")
	require.NoError(t, err)
	_, err = st.verify(t, adv.GatewayOrderID, "pay_adv_1")
	require.NoError(t, err)

	rem, err := st.svc.CreateOrder(context.Background(), b.RequesterID(), b.PublicID(), "REMAINING")
	require.NoError(t, err)
	assert.Equal(t, int64(4200), rem.Amount)

	// The settled advance cannot be ordered again.
	_, err = st.svc.CreateOrder(context.Background(), b.RequesterID(), b.PublicID(), "ADVANCE")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))
}

func TestVerifyPayment_SignatureMismatch(t *testing.T) {
	st := newSettlementStack(t)
	b := st.seedConfirmed(t, "2031-05-10", "2031-05-12")

	dto, err := st.svc.CreateOrder(context.Background(), b.RequesterID(), b.PublicID(), "ADVANCE")
	require.NoError(t, err)

	_, err = st.svc.VerifyPayment(context.Background(), VerifyPaymentRequest{
		GatewayOrderID:   dto.GatewayOrderID,
		GatewayPaymentID: "pay_evil",
		Signature:        "deadbeef",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeSignatureMismatch, apperr.CodeOf(err))

	attempt, err := st.payments.FindByGatewayOrderID(context.Background(), dto.GatewayOrderID)
	require.NoError(t, err)
	assert.False(t, attempt.Verified(), "a rejected callback settles nothing")
}

func TestVerifyPayment_IsIdempotent(t *testing.T) {
	st := newSettlementStack(t)
	b := st.seedConfirmed(t, "2031-05-10", "2031-05-12")

	dto, err := st.svc.CreateOrder(context.Background(), b.RequesterID(), b.PublicID(), "ADVANCE")
	require.NoError(t, err)

	first, err := st.verify(t, dto.GatewayOrderID, "pay_1")
	require.NoError(t, err)

	second, err := st.verify(t, dto.GatewayOrderID, "pay_1")
	require.NoError(t, err)
	assert.Equal(t, first.BookingID, second.BookingID)
	assert.Equal(t, first.Phase, second.Phase)

	paid := st.publisher.ofType(events.AdvancePaid)
	assert.Len(t, paid, 1, "re-delivery publishes nothing new")
}

func TestVerifyPayment_FinalPaymentCompletesEndedBooking(t *testing.T) {
	st := newSettlementStack(t)
	b := st.seedConfirmed(t, "2020-05-10", "2020-05-12")

	adv, err := st.svc.CreateOrder(context.Background(), b.RequesterID(), b.PublicID(), "ADVANCE")
	require.NoError(t, err)
	_, err = st.verify(t, adv.GatewayOrderID, "pay_adv")
	require.NoError(t, err)

	rem, err := st.svc.CreateOrder(context.Background(), b.RequesterID(), b.PublicID(), "REMAINING")
	require.NoError(t, err)
	result, err := st.verify(t, rem.GatewayOrderID, "pay_rem")
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StatusCompleted), result.BookingStatus)

	stored, err := st.bookings.FindByID(context.Background(), b.ID())
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusCompleted, stored.Status())

	completed := st.publisher.ofType(events.BookingComplete)
	assert.Len(t, completed, 1)
}

func TestVerifyPayment_FutureBookingStaysConfirmed(t *testing.T) {
	st := newSettlementStack(t)
	b := st.seedConfirmed(t, "2031-05-10", "2031-05-12")

	adv, err := st.svc.CreateOrder(context.Background(), b.RequesterID(), b.PublicID(), "ADVANCE")
	require.NoError(t, err)
	_, err = st.verify(t, adv.GatewayOrderID, "pay_adv")
	require.NoError(t, err)

	rem, err := st.svc.CreateOrder(context.Background(), b.RequesterID(), b.PublicID(), "REMAINING")
	require.NoError(t, err)
	result, err := st.verify(t, rem.GatewayOrderID, "pay_rem")
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StatusConfirmed), result.BookingStatus,
		"paying early does not complete a booking whose dates have not passed")
}

func TestCreateOrder_UnknownPhase(t *testing.T) {
	st := newSettlementStack(t)
	b := st.seedConfirmed(t, "2031-05-10", "2031-05-12")

	_, err := st.svc.CreateOrder(context.Background(), b.RequesterID(), b.PublicID(), "FULL")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}
