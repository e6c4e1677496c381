package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/venuelink/service-booking/internal/application"
	"github.com/venuelink/service-booking/pkg/auth"
	"github.com/venuelink/service-booking/pkg/middleware"
	"github.com/venuelink/service-booking/pkg/response"
)

// CouponHandler handles HTTP requests for coupon validation and admin
// management.
type CouponHandler struct {
	service *application.CouponService
}

// NewCouponHandler creates a new CouponHandler.
func NewCouponHandler(service *application.CouponService) *CouponHandler {
	return &CouponHandler{service: service}
}

// RegisterRoutes registers coupon routes on the given router group.
func (h *CouponHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	coupons := r.Group("/coupons")
	coupons.Use(middleware.AuthMiddleware(jwtManager))
	{
		coupons.POST("/validate", h.ValidateCoupon)
	}

	admin := r.Group("/admin/coupons")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.POST("", h.CreateCoupon)
		admin.POST("/:code/deactivate", h.DeactivateCoupon)
	}
}

// ValidateCoupon handles POST /api/v1/coupons/validate
func (h *CouponHandler) ValidateCoupon(c *gin.Context) {
	var req application.ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.ValidateCoupon(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// CreateCoupon handles POST /api/v1/admin/coupons
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var req application.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.CreateCoupon(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto)
}

// DeactivateCoupon handles POST /api/v1/admin/coupons/:code/deactivate
func (h *CouponHandler) DeactivateCoupon(c *gin.Context) {
	dto, err := h.service.DeactivateCoupon(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}
