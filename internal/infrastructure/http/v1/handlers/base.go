// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sequencer/internal/core/apperror"
	"sequencer/internal/core/tenant"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct {
	location *time.Location
}

// NewBaseHandler creates a new base handler. Date-only request values are
// read in loc; nil means UTC.
func NewBaseHandler(loc *time.Location) *BaseHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &BaseHandler{location: loc}
}

// Location returns the location used for date-only values.
func (h *BaseHandler) Location() *time.Location {
	return h.location
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// GetTenantCode extracts the tenant code resolved by middleware.Tenant.
func (h *BaseHandler) GetTenantCode(c *gin.Context) string {
	return tenant.GetTenantCode(c.Request.Context())
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
