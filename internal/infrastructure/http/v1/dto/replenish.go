package dto

import (
	"abasto/internal/costing"
	"abasto/internal/replenish"
)

// NewItemPayload carries the attributes of an item created by the purchase
// itself. Numeric fields stay strings so a half-typed line round-trips
// untouched.
type NewItemPayload struct {
	Name          string `json:"name"`
	Brand         string `json:"brand,omitempty"`
	Barcode       string `json:"barcode,omitempty"`
	SellingPrice  string `json:"selling_price"`
	PackSize      string `json:"pack_size,omitempty"`
	PackPrice     string `json:"pack_price,omitempty"`
	CategoryID    *int64 `json:"category_id,omitempty"`
	MinStockAlert string `json:"min_stock_alert,omitempty"`
}

// DraftLineRequest adds or updates one draft purchase line. Either item_id
// names an existing item or new_item describes one to create.
type DraftLineRequest struct {
	ItemID   int64           `json:"item_id"`
	NewItem  *NewItemPayload `json:"new_item,omitempty"`
	Quantity string          `json:"quantity"`
	Cost     string          `json:"cost"`
	FormatRef
}

// Form converts the wire line to a draft form.
func (r DraftLineRequest) Form() replenish.Form {
	f := replenish.Form{
		ItemID:    r.ItemID,
		Selector:  r.FormatRef.Selector(),
		Quantity:  r.Quantity,
		TotalCost: r.Cost,
	}
	if n := r.NewItem; n != nil {
		f.NewItem = &replenish.NewItemSpec{
			Name:          n.Name,
			Brand:         n.Brand,
			Barcode:       n.Barcode,
			SellingPrice:  n.SellingPrice,
			PackSize:      n.PackSize,
			PackPrice:     n.PackPrice,
			CategoryID:    n.CategoryID,
			MinStockAlert: n.MinStockAlert,
		}
	}
	return f
}

// DraftLineResponse is one draft line with its live cost preview.
type DraftLineResponse struct {
	Index    int    `json:"index"`
	ItemID   int64  `json:"item_id,omitempty"`
	NewItem  string `json:"new_item,omitempty"`
	IsPack   bool   `json:"is_pack"`
	FormatID *int64 `json:"format_id,omitempty"`
	Quantity string `json:"quantity"`
	Cost     string `json:"cost"`
	UnitCost string `json:"unit_cost"`
	PackCost string `json:"pack_cost"`
}

// DraftResponse is the full draft view.
type DraftResponse struct {
	Lines []DraftLineResponse `json:"lines"`
}

// NewDraftResponse maps draft lines and their previews to the wire.
func NewDraftResponse(lines []replenish.Line, previews []costing.Costs) DraftResponse {
	out := DraftResponse{Lines: make([]DraftLineResponse, 0, len(lines))}
	for i, l := range lines {
		ref := FormatRefFromSelector(l.Selector)
		resp := DraftLineResponse{
			Index:    i,
			ItemID:   l.ItemID,
			IsPack:   ref.IsPack,
			FormatID: ref.FormatID,
			Quantity: l.Quantity,
			Cost:     l.TotalCost,
		}
		if l.NewItem != nil {
			resp.NewItem = l.NewItem.Name
		}
		if i < len(previews) {
			resp.UnitCost = previews[i].UnitCost.String()
			resp.PackCost = previews[i].PackCost.String()
		}
		out.Lines = append(out.Lines, resp)
	}
	return out
}
