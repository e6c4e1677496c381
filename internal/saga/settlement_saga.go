package saga

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/venuelink/service-booking/internal/adapter"
	"github.com/venuelink/service-booking/internal/domain/apperr"
	"github.com/venuelink/service-booking/internal/domain/payment"
)

// SettlementSagaService coordinates gateway order creation with the local
// attempt record so the two cannot drift apart.
type SettlementSagaService struct {
	payments payment.Repository
	gateway  adapter.GatewayAdapter
	logger   *zap.Logger
}

// NewSettlementSagaService creates a new SettlementSagaService.
func NewSettlementSagaService(
	payments payment.Repository,
	gateway adapter.GatewayAdapter,
	logger *zap.Logger,
) *SettlementSagaService {
	return &SettlementSagaService{
		payments: payments,
		gateway:  gateway,
		logger:   logger,
	}
}

// CreateOrderSaga registers a gateway order for one installment and persists
// the matching payment attempt. When the attempt cannot be stored, the
// gateway order is voided so no orphaned order can later be "verified".
func (s *SettlementSagaService) CreateOrderSaga(
	ctx context.Context,
	bookingID int64,
	bookingRef string,
	phase payment.Phase,
	amount int64,
	currency string,
) (*payment.Attempt, error) {
	var gatewayOrderID string
	var attempt *payment.Attempt

	receipt := fmt.Sprintf("%s_%s", bookingRef, phase)
	sg := New("create_payment_order", s.logger)

	sg.AddStep(Step{
		Name: "create_gateway_order",
		Execute: func(ctx context.Context) error {
			id, err := s.gateway.CreateOrder(ctx, amount, currency, receipt)
			if err != nil {
				// Only the gateway call is an external collaborator.
				return apperr.NewUpstreamError("create gateway order", err)
			}
			gatewayOrderID = id
			return nil
		},
		Compensate: func(ctx context.Context) error {
			if gatewayOrderID == "" {
				return nil
			}
			return s.gateway.CancelOrder(ctx, gatewayOrderID)
		},
	})

	sg.AddStep(Step{
		Name: "save_attempt",
		Execute: func(ctx context.Context) error {
			attempt = payment.NewAttempt(bookingID, phase, gatewayOrderID, amount, currency)
			return s.payments.Save(ctx, attempt)
		},
		Compensate: nil,
	})

	if err := sg.Execute(ctx); err != nil {
		return nil, err
	}
	return attempt, nil
}
