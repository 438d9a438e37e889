package handlers

import (
	"github.com/gin-gonic/gin"

	"abasto/internal/infrastructure/http/v1/dto"
	"abasto/internal/terminal"
)

// BulkPriceHandler serves bulk price mutations.
type BulkPriceHandler struct {
	BaseHandler
	svc *terminal.Service
}

// NewBulkPriceHandler creates a new bulk price handler.
func NewBulkPriceHandler(svc *terminal.Service) *BulkPriceHandler {
	return &BulkPriceHandler{svc: svc}
}

// Preview validates a mutation and reports its scope without applying it.
// POST /api/v1/bulk-price/preview
func (h *BulkPriceHandler) Preview(c *gin.Context) {
	var req dto.BulkPriceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	preview, err := h.svc.PreviewBulkPrice(req.Mutation())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.BulkPriceResponse{
		Affected:    preview.AffectedCount,
		SamplePrice: preview.SamplePrice.String(),
	})
}

// Apply validates and submits a mutation to the remote service.
// POST /api/v1/bulk-price
func (h *BulkPriceHandler) Apply(c *gin.Context) {
	var req dto.BulkPriceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	_, preview, err := h.svc.ApplyBulkPrice(c.Request.Context(), req.Mutation())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.BulkPriceResponse{
		Affected:    preview.AffectedCount,
		SamplePrice: preview.SamplePrice.String(),
	})
}
