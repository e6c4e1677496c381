package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/venuelink/service-booking/internal/application"
	"github.com/venuelink/service-booking/pkg/auth"
	"github.com/venuelink/service-booking/pkg/middleware"
	"github.com/venuelink/service-booking/pkg/response"
)

// PaymentHandler handles HTTP requests for the two-phase settlement flow.
type PaymentHandler struct {
	service *application.SettlementService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *application.SettlementService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// RegisterRoutes registers payment routes. The verify endpoint is
// unauthenticated: it is the gateway's callback, authenticated by its HMAC
// signature instead of a user token.
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	orders := r.Group("/bookings")
	orders.Use(middleware.AuthMiddleware(jwtManager))
	{
		orders.POST("/:id/payments/:phase/order", h.CreateOrder)
	}

	r.POST("/payments/verify", h.VerifyPayment)
}

// CreateOrder handles POST /api/v1/bookings/:id/payments/:phase/order
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	dto, err := h.service.CreateOrder(c.Request.Context(), userID, bookingID, c.Param("phase"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto)
}

// VerifyPayment handles POST /api/v1/payments/verify
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req application.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.VerifyPayment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}
