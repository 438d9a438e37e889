// Package catalog provides the catalog item model, sale-format resolution,
// and the in-memory snapshot of the remote catalog the terminal sells against.
package catalog

import (
	"github.com/shopspring/decimal"

	"abasto/internal/core/types"
)

// ItemStatus mirrors the remote service's availability flag.
type ItemStatus string

const (
	StatusAvailable ItemStatus = "AVAILABLE"
	StatusDepleted  ItemStatus = "DEPLETED"
	StatusReserved  ItemStatus = "RESERVED"
)

// DefaultMinStockAlert is applied when the remote service sends no threshold.
const DefaultMinStockAlert = 5

// Item is one physical product line of the remote catalog.
// Quantity is always expressed in the item's base unit, no matter which
// format was used to sell or replenish it.
type Item struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Brand   string  `json:"brand,omitempty"`
	Barcode *string `json:"barcode,omitempty"`

	// Quantity on hand, in base units.
	Quantity types.Quantity `json:"quantity"`

	SellingPrice decimal.Decimal `json:"selling_price"`
	UnitCost     decimal.Decimal `json:"unit_cost"`

	// Built-in pack format. PackSize/PackPrice are only meaningful
	// when IsPack is set.
	IsPack    bool             `json:"is_pack"`
	PackSize  int64            `json:"pack_size,omitempty"`
	PackPrice *decimal.Decimal `json:"pack_price,omitempty"`

	CategoryID    *int64     `json:"category_id,omitempty"`
	MinStockAlert float64    `json:"min_stock_alert,omitempty"`
	Status        ItemStatus `json:"status,omitempty"`

	// Additional named pack formats beyond the default one.
	Formats []ExtraFormat `json:"formats,omitempty"`
}

// ExtraFormat is an additional named way to sell the same item in bulk,
// e.g. a box of 12 next to the default six-pack. It never exists independent
// of its owning item.
type ExtraFormat struct {
	ID        int64           `json:"id"`
	ItemID    int64           `json:"stock_item_id"`
	PackSize  int64           `json:"pack_size"`
	PackPrice decimal.Decimal `json:"pack_price"`
}

// Category is a product grouping record from the remote service.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// DisplayName is the operator-facing name, brand-prefixed when present.
func (i *Item) DisplayName() string {
	if i.Brand != "" {
		return i.Brand + " " + i.Name
	}
	return i.Name
}

// MinStock returns the low-stock threshold with the default applied.
func (i *Item) MinStock() float64 {
	if i.MinStockAlert > 0 {
		return i.MinStockAlert
	}
	return DefaultMinStockAlert
}

// IsLowStock reports whether quantity on hand is at or below the alert threshold.
func (i *Item) IsLowStock() bool {
	return i.Quantity.Float64() <= i.MinStock()
}

// extraFormat finds a named format by id.
func (i *Item) extraFormat(formatID int64) (ExtraFormat, bool) {
	for _, f := range i.Formats {
		if f.ID == formatID {
			return f, true
		}
	}
	return ExtraFormat{}, false
}
