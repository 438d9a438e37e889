// Package cart implements the terminal's sale cart: per-format quantity
// lines over catalog items, with a stock ceiling enforced across every
// format of the same item.
package cart

import (
	"sort"

	"github.com/shopspring/decimal"

	"abasto/internal/core/apperror"
	"abasto/internal/core/types"

	"abasto/internal/catalog"
)

// CatalogView resolves item ids for the cart. Satisfied by *catalog.Store
// and by *catalog.Snapshot.
type CatalogView interface {
	Item(id int64) (*catalog.Item, error)
}

// LineKey identifies one cart line: the same item in two different formats
// is two lines.
type LineKey struct {
	ItemID   int64
	Selector catalog.FormatSelector
}

// Line is a priced cart line as presented to the operator.
type Line struct {
	Key      LineKey
	Quantity types.Quantity

	// Resolved against the catalog at read time.
	DisplayName       string
	UnitsPerSelection int64
	UnitPrice         decimal.Decimal
	Total             decimal.Decimal

	// Missing marks a line whose item or format vanished from the catalog
	// after a refresh. The line is kept, priced at zero, so the operator
	// can see and remove it rather than silently losing it.
	Missing bool
}

// Aggregator accumulates quantities per (item, format) line. It is not
// safe for concurrent use; the owning session serializes access.
type Aggregator struct {
	view  CatalogView
	lines map[LineKey]types.Quantity
}

// New creates an empty cart over the given catalog view.
func New(view CatalogView) *Aggregator {
	return &Aggregator{
		view:  view,
		lines: make(map[LineKey]types.Quantity),
	}
}

// SetQuantity sets the quantity of one line. A non-positive quantity removes
// the line. The write is rejected and the cart left unchanged when the item
// or format does not resolve, or when the new cart total for the item would
// exceed stock on hand.
func (a *Aggregator) SetQuantity(itemID int64, sel catalog.FormatSelector, qty types.Quantity) error {
	key := LineKey{ItemID: itemID, Selector: sel}

	if !qty.IsPositive() {
		delete(a.lines, key)
		return nil
	}

	item, err := a.view.Item(itemID)
	if err != nil {
		return err
	}
	res, err := catalog.Resolve(item, sel)
	if err != nil {
		return err
	}

	// Stock ceiling spans every format of this item: six units plus one
	// six-pack of the same product consume twelve base units.
	needed := qty.MulInt(res.UnitsPerSelection)
	for k, q := range a.lines {
		if k.ItemID != itemID || k == key {
			continue
		}
		other, err := catalog.Resolve(item, k.Selector)
		if err != nil {
			// A stale sibling line no longer resolves; it consumes
			// nothing until the operator clears it.
			continue
		}
		needed += q.MulInt(other.UnitsPerSelection)
	}
	if needed > item.Quantity {
		return apperror.NewInsufficientStock(item.DisplayName(), needed.Float64(), item.Quantity.Float64())
	}

	a.lines[key] = qty
	return nil
}

// Increment adds delta selections to a line, creating it as needed.
func (a *Aggregator) Increment(itemID int64, sel catalog.FormatSelector, delta types.Quantity) error {
	key := LineKey{ItemID: itemID, Selector: sel}
	return a.SetQuantity(itemID, sel, a.lines[key]+delta)
}

// Add puts one more selection of the format in the cart.
func (a *Aggregator) Add(itemID int64, sel catalog.FormatSelector) error {
	return a.Increment(itemID, sel, types.NewQuantityFromInt64(1))
}

// Decrement removes delta selections from a line; at or below zero the line
// is dropped.
func (a *Aggregator) Decrement(itemID int64, sel catalog.FormatSelector, delta types.Quantity) {
	key := LineKey{ItemID: itemID, Selector: sel}
	cur, ok := a.lines[key]
	if !ok {
		return
	}
	next := cur - delta
	if !next.IsPositive() {
		delete(a.lines, key)
		return
	}
	a.lines[key] = next
}

// Remove drops a line regardless of quantity.
func (a *Aggregator) Remove(itemID int64, sel catalog.FormatSelector) {
	delete(a.lines, LineKey{ItemID: itemID, Selector: sel})
}

// Clear empties the cart.
func (a *Aggregator) Clear() {
	a.lines = make(map[LineKey]types.Quantity)
}

// Len returns the number of lines.
func (a *Aggregator) Len() int { return len(a.lines) }

// IsEmpty reports whether the cart has no lines.
func (a *Aggregator) IsEmpty() bool { return len(a.lines) == 0 }

// Quantity returns the current quantity of a line, zero when absent.
func (a *Aggregator) Quantity(itemID int64, sel catalog.FormatSelector) types.Quantity {
	return a.lines[LineKey{ItemID: itemID, Selector: sel}]
}

// Lines returns the priced cart lines in stable order: by item id, then
// unit before packs, then format id. Pricing reflects the catalog as of
// this call; lines whose item or format vanished are flagged Missing and
// priced at zero.
func (a *Aggregator) Lines() []Line {
	keys := make([]LineKey, 0, len(a.lines))
	for k := range a.lines {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ItemID != keys[j].ItemID {
			return keys[i].ItemID < keys[j].ItemID
		}
		return keys[i].Selector.Less(keys[j].Selector)
	})

	out := make([]Line, 0, len(keys))
	for _, k := range keys {
		out = append(out, a.priceLine(k, a.lines[k]))
	}
	return out
}

// Total sums the priced lines. Missing lines contribute zero.
func (a *Aggregator) Total() decimal.Decimal {
	total := decimal.Zero
	for k, q := range a.lines {
		total = total.Add(a.priceLine(k, q).Total)
	}
	return total
}

func (a *Aggregator) priceLine(k LineKey, qty types.Quantity) Line {
	line := Line{Key: k, Quantity: qty}

	item, err := a.view.Item(k.ItemID)
	if err != nil {
		line.Missing = true
		line.Total = decimal.Zero
		return line
	}
	line.DisplayName = item.DisplayName()

	res, err := catalog.Resolve(item, k.Selector)
	if err != nil {
		line.Missing = true
		line.Total = decimal.Zero
		return line
	}

	line.UnitsPerSelection = res.UnitsPerSelection
	line.UnitPrice = res.PricePerSelection
	line.Total = qty.Decimal().Mul(res.PricePerSelection)
	return line
}
