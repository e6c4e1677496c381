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

// CalendarHandler handles HTTP requests for calendar views, availability
// probes, and manual blocks.
type CalendarHandler struct {
	calendars    *application.CalendarService
	availability *application.AvailabilityService
}

// NewCalendarHandler creates a new CalendarHandler.
func NewCalendarHandler(calendars *application.CalendarService, availability *application.AvailabilityService) *CalendarHandler {
	return &CalendarHandler{calendars: calendars, availability: availability}
}

// RegisterRoutes registers calendar routes. Vendor availability is public;
// the merged calendar and block management require auth.
func (h *CalendarHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	vendors := r.Group("/vendors")
	{
		vendors.GET("/:vendorId/availability", h.CheckAvailability)
		vendors.GET("/:vendorId/blocked", h.ListBlocked)
	}

	calendar := r.Group("/calendar")
	calendar.Use(middleware.AuthMiddleware(jwtManager))
	{
		calendar.GET("", h.GetCalendar)
		calendar.POST("/blocks", h.AddBlock)
		calendar.DELETE("/blocks/:blockId", h.RemoveBlock)
	}
}

// CheckAvailability handles GET /api/v1/vendors/:vendorId/availability
func (h *CalendarHandler) CheckAvailability(c *gin.Context) {
	vendorID, err := uuid.Parse(c.Param("vendorId"))
	if err != nil {
		response.BadRequest(c, "invalid vendor ID")
		return
	}

	var q application.AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.availability.CheckAvailability(c.Request.Context(), vendorID, q)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// ListBlocked handles GET /api/v1/vendors/:vendorId/blocked
func (h *CalendarHandler) ListBlocked(c *gin.Context) {
	vendorID, err := uuid.Parse(c.Param("vendorId"))
	if err != nil {
		response.BadRequest(c, "invalid vendor ID")
		return
	}

	ranges, err := h.availability.ListBlocked(c.Request.Context(), vendorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, ranges)
}

// GetCalendar handles GET /api/v1/calendar
func (h *CalendarHandler) GetCalendar(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	view, err := h.calendars.GetCalendar(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, view)
}

// AddBlock handles POST /api/v1/calendar/blocks
func (h *CalendarHandler) AddBlock(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.AddBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.calendars.AddBlock(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto)
}

// RemoveBlock handles DELETE /api/v1/calendar/blocks/:blockId
func (h *CalendarHandler) RemoveBlock(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	blockID, err := uuid.Parse(c.Param("blockId"))
	if err != nil {
		response.BadRequest(c, "invalid block ID")
		return
	}

	if err := h.calendars.RemoveBlock(c.Request.Context(), userID, blockID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
