package handlers

import (
	"github.com/gin-gonic/gin"

	"sequencer/internal/core/sequence"
	domain "sequencer/internal/domain/sequence"
	"sequencer/internal/infrastructure/http/v1/dto"
)

// SequenceHandler handles number allocation and counter lookups.
type SequenceHandler struct {
	*BaseHandler
	service *domain.Service
}

// NewSequenceHandler creates a new sequence handler.
func NewSequenceHandler(base *BaseHandler, service *domain.Service) *SequenceHandler {
	return &SequenceHandler{BaseHandler: base, service: service}
}

// Generate allocates the next number of a type.
// POST /sequences
func (h *SequenceHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	domainReq, err := req.ToDomain(h.GetTenantCode(c), h.Location())
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.Generate(c.Request.Context(), domainReq)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromResult(result))
}

// GenerateWithSetting allocates the next number using the format in the body.
// POST /sequences/with-setting
func (h *SequenceHandler) GenerateWithSetting(c *gin.Context) {
	var req dto.GenerateWithSettingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	domainReq, err := req.ToDomain(h.GetTenantCode(c), h.Location())
	if err != nil {
		h.Error(c, err)
		return
	}
	setting, err := req.Setting(h.Location())
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.GenerateWithSetting(c.Request.Context(), domainReq, setting)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromResult(result))
}

// Current returns a counter without advancing it.
// GET /sequences/current?typeCode=&rotateValue=
func (h *SequenceHandler) Current(c *gin.Context) {
	var q dto.CurrentQuery
	if !h.BindQuery(c, &q) {
		return
	}

	counter, err := h.service.Current(c.Request.Context(), sequence.Key{
		TenantCode:  h.GetTenantCode(c),
		TypeCode:    q.TypeCode,
		RotateValue: q.RotateValue,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCounter(counter))
}
