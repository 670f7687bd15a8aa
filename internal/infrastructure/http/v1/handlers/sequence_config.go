package handlers

import (
	"github.com/gin-gonic/gin"

	domain "sequencer/internal/domain/sequence"
	"sequencer/internal/infrastructure/http/v1/dto"
)

// SequenceConfigHandler manages per-type sequence configuration.
type SequenceConfigHandler struct {
	*BaseHandler
	configs *domain.ConfigService
}

// NewSequenceConfigHandler creates a new config handler.
func NewSequenceConfigHandler(base *BaseHandler, configs *domain.ConfigService) *SequenceConfigHandler {
	return &SequenceConfigHandler{BaseHandler: base, configs: configs}
}

// List returns every config of the tenant.
// GET /sequence-configs
func (h *SequenceConfigHandler) List(c *gin.Context) {
	list, err := h.configs.List(c.Request.Context(), h.GetTenantCode(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(dto.FromConfigs(list)))
}

// Get returns one config.
// GET /sequence-configs/:typeCode
func (h *SequenceConfigHandler) Get(c *gin.Context) {
	cfg, err := h.configs.Get(c.Request.Context(), h.GetTenantCode(c), c.Param("typeCode"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromConfig(cfg))
}

// Put creates or replaces one config.
// PUT /sequence-configs/:typeCode
func (h *SequenceConfigHandler) Put(c *gin.Context) {
	var req dto.ConfigRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cfg, err := req.ToDomain(h.GetTenantCode(c), c.Param("typeCode"), h.Location())
	if err != nil {
		h.Error(c, err)
		return
	}

	saved, err := h.configs.Put(c.Request.Context(), cfg)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromConfig(saved))
}

// Delete removes one config.
// DELETE /sequence-configs/:typeCode
func (h *SequenceConfigHandler) Delete(c *gin.Context) {
	if err := h.configs.Delete(c.Request.Context(), h.GetTenantCode(c), c.Param("typeCode")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
