package adapter

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GatewayAdapter is the Anti-Corruption Layer for the external payment
// gateway. The core creates orders through it and verifies the gateway's
// signed callbacks against the shared secret.
type GatewayAdapter interface {
	// CreateOrder registers an order with the gateway and returns its id.
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error)

	// CancelOrder voids an order that was never settled. Used as the
	// compensating action when persisting the local attempt fails.
	CancelOrder(ctx context.Context, gatewayOrderID string) error

	// VerifySignature checks the callback HMAC for an (order, payment) pair
	// in constant time. It never mutates anything.
	VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool
}

// Sign computes the expected callback signature: hex HMAC-SHA256 over
// "orderID|paymentID" with the shared secret. Exposed so tests and the mock
// can produce valid callbacks.
func Sign(gatewayOrderID, gatewayPaymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// MockGatewayAdapter simulates the gateway for development and tests. Orders
// get synthetic ids; signature verification uses the real HMAC scheme so the
// verify path is exercised end to end.
type MockGatewayAdapter struct {
	secret string
	logger *zap.Logger
}

// NewMockGatewayAdapter creates a mock gateway with the shared secret.
func NewMockGatewayAdapter(secret string, logger *zap.Logger) *MockGatewayAdapter {
	return &MockGatewayAdapter{secret: secret, logger: logger}
}

// CreateOrder returns a synthetic gateway order id.
func (m *MockGatewayAdapter) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error) {
	orderID := fmt.Sprintf("order_%s", uuid.New().String()[:12])
	m.logger.Info("[MOCK GATEWAY] order created",
		zap.String("gateway_order_id", orderID),
		zap.Int64("amount", amount),
		zap.String("currency", currency),
		zap.String("receipt", receipt),
	)
	return orderID, nil
}

// CancelOrder logs the cancellation; the mock keeps no order state.
func (m *MockGatewayAdapter) CancelOrder(ctx context.Context, gatewayOrderID string) error {
	m.logger.Info("[MOCK GATEWAY] order cancelled",
		zap.String("gateway_order_id", gatewayOrderID),
	)
	return nil
}

// VerifySignature recomputes the HMAC and compares constant-time.
func (m *MockGatewayAdapter) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	expected := Sign(gatewayOrderID, gatewayPaymentID, m.secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
