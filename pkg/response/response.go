package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/venuelink/service-booking/internal/domain/apperr"
)

// Success writes a 200 with the data envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// Created writes a 201 with the data envelope.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"data": data})
}

// BadRequest writes a 400 validation error.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    apperr.CodeValidation,
		"message": message,
	})
}

// Error maps a domain error to its HTTP status and writes the stable
// machine-readable code plus the human message. Callers must not infer the
// outcome from the status alone.
func Error(c *gin.Context, err error) {
	var de *apperr.DomainError
	if !errors.As(err, &de) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL",
			"message": "internal server error",
		})
		return
	}
	c.JSON(statusFor(de), gin.H{
		"code":    de.Code,
		"message": de.Message,
	})
}

func statusFor(de *apperr.DomainError) int {
	switch {
	case errors.Is(de.Err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(de.Err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(de.Err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(de.Err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(de.Err, apperr.ErrState):
		return http.StatusUnprocessableEntity
	case errors.Is(de.Err, apperr.ErrSignature):
		return http.StatusBadRequest
	case errors.Is(de.Err, apperr.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
