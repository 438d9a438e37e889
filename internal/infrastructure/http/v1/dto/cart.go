package dto

import (
	"abasto/internal/cart"
	"abasto/internal/catalog"
)

// FormatRef names a sale format on the wire: is_pack false is a unit,
// is_pack true without format_id is the default pack, with format_id an
// extra named format.
type FormatRef struct {
	IsPack   bool   `json:"is_pack"`
	FormatID *int64 `json:"format_id,omitempty"`
}

// Selector converts the wire reference to a format selector.
func (f FormatRef) Selector() catalog.FormatSelector {
	switch {
	case !f.IsPack:
		return catalog.Unit()
	case f.FormatID == nil:
		return catalog.DefaultPack()
	default:
		return catalog.PackOf(*f.FormatID)
	}
}

// FormatRefFromSelector converts a selector back to its wire form.
func FormatRefFromSelector(sel catalog.FormatSelector) FormatRef {
	switch sel.Kind {
	case catalog.KindDefaultPack:
		return FormatRef{IsPack: true}
	case catalog.KindExtraPack:
		fid := sel.FormatID
		return FormatRef{IsPack: true, FormatID: &fid}
	default:
		return FormatRef{}
	}
}

// SetCartLineRequest sets the quantity of one cart line. Zero removes it.
type SetCartLineRequest struct {
	ItemID   int64   `json:"item_id" binding:"required"`
	Quantity float64 `json:"quantity"`
	FormatRef
}

// AddCartLineRequest puts one more selection of a format in the cart.
type AddCartLineRequest struct {
	ItemID int64 `json:"item_id" binding:"required"`
	FormatRef
}

// CartLineResponse is one priced cart line.
type CartLineResponse struct {
	ItemID      int64   `json:"item_id"`
	IsPack      bool    `json:"is_pack"`
	FormatID    *int64  `json:"format_id,omitempty"`
	DisplayName string  `json:"display_name"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   string  `json:"unit_price"`
	Total       string  `json:"total"`
	Missing     bool    `json:"missing,omitempty"`
}

// CartResponse is the full cart view.
type CartResponse struct {
	Lines []CartLineResponse `json:"lines"`
	Total string             `json:"total"`
}

// NewCartResponse maps priced cart lines to the wire.
func NewCartResponse(lines []cart.Line, total string) CartResponse {
	out := CartResponse{Lines: make([]CartLineResponse, 0, len(lines)), Total: total}
	for _, l := range lines {
		ref := FormatRefFromSelector(l.Key.Selector)
		out.Lines = append(out.Lines, CartLineResponse{
			ItemID:      l.Key.ItemID,
			IsPack:      ref.IsPack,
			FormatID:    ref.FormatID,
			DisplayName: l.DisplayName,
			Quantity:    l.Quantity.Float64(),
			UnitPrice:   l.UnitPrice.String(),
			Total:       l.Total.String(),
			Missing:     l.Missing,
		})
	}
	return out
}

// CheckoutRequest is the optional checkout body.
type CheckoutRequest struct {
	Description string `json:"description"`
}

// CheckoutResponse confirms a registered sale.
type CheckoutResponse struct {
	SaleID int64   `json:"sale_id"`
	Total  float64 `json:"total"`
}

// QuickSellRequest sells one line without a cart.
type QuickSellRequest struct {
	ItemID   int64   `json:"item_id" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required"`
	IsPack   bool    `json:"is_pack"`
}
