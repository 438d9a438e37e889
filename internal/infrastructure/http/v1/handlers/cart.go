package handlers

import (
	"github.com/gin-gonic/gin"

	"abasto/internal/core/apperror"
	"abasto/internal/core/id"
	"abasto/internal/core/types"

	"abasto/internal/cart"
	"abasto/internal/infrastructure/http/v1/dto"
	"abasto/internal/replenish"
	"abasto/internal/session"
	"abasto/internal/terminal"
)

// CartHandler manages sessions and their carts.
type CartHandler struct {
	BaseHandler
	svc *terminal.Service
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(svc *terminal.Service) *CartHandler {
	return &CartHandler{svc: svc}
}

// sessionFrom resolves the :sid path parameter to a live session.
func (h *CartHandler) sessionFrom(c *gin.Context) (*session.Session, bool) {
	sid, err := id.Parse(c.Param("sid"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid session id"))
		return nil, false
	}
	sess, err := h.svc.Sessions().Get(sid)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return sess, true
}

// CreateSession starts a new operator session.
// POST /api/v1/sessions
func (h *CartHandler) CreateSession(c *gin.Context) {
	sess := h.svc.Sessions().Create()
	h.Created(c, dto.SessionResponse{SessionID: sess.ID.String()})
}

// DeleteSession ends a session and discards its state.
// DELETE /api/v1/sessions/:sid
func (h *CartHandler) DeleteSession(c *gin.Context) {
	sid, err := id.Parse(c.Param("sid"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid session id"))
		return
	}
	h.svc.Sessions().Delete(sid)
	h.NoContent(c)
}

// cartResponse builds the wire view of a session's cart.
func cartResponse(ca *cart.Aggregator) dto.CartResponse {
	return dto.NewCartResponse(ca.Lines(), ca.Total().String())
}

// GetCart returns the priced cart.
// GET /api/v1/sessions/:sid/cart
func (h *CartHandler) GetCart(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok {
		return
	}
	var resp dto.CartResponse
	_ = sess.Do(func(ca *cart.Aggregator, _ *replenish.DraftList) error {
		resp = cartResponse(ca)
		return nil
	})
	h.OK(c, resp)
}

// SetLine sets one cart line's quantity. Zero removes the line.
// PUT /api/v1/sessions/:sid/cart/lines
func (h *CartHandler) SetLine(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok {
		return
	}
	var req dto.SetCartLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	var resp dto.CartResponse
	err := sess.Do(func(ca *cart.Aggregator, _ *replenish.DraftList) error {
		if err := ca.SetQuantity(req.ItemID, req.FormatRef.Selector(),
			types.NewQuantityFromFloat64(req.Quantity)); err != nil {
			return err
		}
		resp = cartResponse(ca)
		return nil
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, resp)
}

// AddLine puts one more selection of a format in the cart.
// POST /api/v1/sessions/:sid/cart/lines
func (h *CartHandler) AddLine(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok {
		return
	}
	var req dto.AddCartLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	var resp dto.CartResponse
	err := sess.Do(func(ca *cart.Aggregator, _ *replenish.DraftList) error {
		if err := ca.Add(req.ItemID, req.FormatRef.Selector()); err != nil {
			return err
		}
		resp = cartResponse(ca)
		return nil
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, resp)
}

// ClearCart empties the cart.
// POST /api/v1/sessions/:sid/cart/clear
func (h *CartHandler) ClearCart(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok {
		return
	}
	_ = sess.Do(func(ca *cart.Aggregator, _ *replenish.DraftList) error {
		ca.Clear()
		return nil
	})
	h.Success(c, "cart cleared")
}

// Checkout submits the cart as one sale.
// POST /api/v1/sessions/:sid/checkout
func (h *CartHandler) Checkout(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok {
		return
	}
	var req dto.CheckoutRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}
	res, err := h.svc.Checkout(c.Request.Context(), sess, req.Description)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.CheckoutResponse{SaleID: res.SaleID, Total: res.Total})
}

// QuickSell registers a single-line sale without a cart.
// POST /api/v1/quick-sell
func (h *CartHandler) QuickSell(c *gin.Context) {
	var req dto.QuickSellRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.svc.QuickSell(c.Request.Context(), req.ItemID, req.Quantity, req.IsPack)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.CheckoutResponse{SaleID: res.SaleID, Total: res.Total})
}
