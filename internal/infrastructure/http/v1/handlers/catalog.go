package handlers

import (
	"github.com/gin-gonic/gin"

	"abasto/internal/catalog"
	"abasto/internal/infrastructure/http/v1/dto"
	"abasto/internal/terminal"
)

// CatalogHandler serves the catalog snapshot and item mutations.
type CatalogHandler struct {
	BaseHandler
	svc *terminal.Service
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(svc *terminal.Service) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// List returns the full catalog view.
// GET /api/v1/catalog
func (h *CatalogHandler) List(c *gin.Context) {
	snap := h.svc.Store().Current()
	resp := dto.CatalogResponse{
		Items:          snap.Items(),
		Categories:     snap.Categories(),
		Brands:         snap.Brands(),
		InventoryValue: snap.InventoryValue().String(),
	}
	if !snap.FetchedAt.IsZero() {
		resp.FetchedAt = snap.FetchedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	}
	h.OK(c, resp)
}

// Get returns one item.
// GET /api/v1/catalog/items/:id
func (h *CatalogHandler) Get(c *gin.Context) {
	itemID, ok := h.ParseInt64Param(c, "id")
	if !ok {
		return
	}
	item, err := h.svc.Store().Item(itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// LowStock returns items at or below their alert threshold.
// GET /api/v1/catalog/low-stock
func (h *CatalogHandler) LowStock(c *gin.Context) {
	h.OK(c, gin.H{"items": h.svc.Store().Current().LowStock()})
}

// Refresh re-fetches the catalog from the remote service.
// POST /api/v1/catalog/refresh
func (h *CatalogHandler) Refresh(c *gin.Context) {
	if err := h.svc.Refresh(c.Request.Context()); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "catalog refreshed")
}

// Scan resolves a scanned barcode to an item.
// POST /api/v1/scan
func (h *CatalogHandler) Scan(c *gin.Context) {
	var req dto.ScanRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.svc.Scan(req.Code)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// Update edits an item remotely.
// PUT /api/v1/catalog/items/:id
func (h *CatalogHandler) Update(c *gin.Context) {
	itemID, ok := h.ParseInt64Param(c, "id")
	if !ok {
		return
	}
	var item catalog.Item
	if !h.BindJSON(c, &item) {
		return
	}
	item.ID = itemID

	out, err := h.svc.UpdateItem(c.Request.Context(), item)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, out)
}

// Delete removes an item from the remote catalog.
// DELETE /api/v1/catalog/items/:id
func (h *CatalogHandler) Delete(c *gin.Context) {
	itemID, ok := h.ParseInt64Param(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteItem(c.Request.Context(), itemID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
