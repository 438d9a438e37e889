// Package replenish implements the batch stock-entry draft: purchase lines
// accumulated locally, validated and committed to the remote service as one
// request. A line either replenishes an existing catalog item or creates a
// brand-new one; the choice is fixed when the line is added.
package replenish

import (
	"context"

	"github.com/shopspring/decimal"

	"abasto/internal/core/apperror"
	"abasto/internal/core/id"

	"abasto/internal/cart"
	"abasto/internal/catalog"
	"abasto/internal/costing"
)

// NewItemSpec carries the attributes of a not-yet-existing item on a draft
// line. Numeric fields stay strings until validation, matching the entry
// form.
type NewItemSpec struct {
	Name          string
	Brand         string
	Barcode       string
	SellingPrice  string
	PackSize      string
	PackPrice     string
	CategoryID    *int64
	MinStockAlert string
}

// Form carries the raw entry fields of one draft line. Exactly one of
// ItemID and NewItem must be set.
type Form struct {
	ItemID    int64
	NewItem   *NewItemSpec
	Selector  catalog.FormatSelector
	Quantity  string
	TotalCost string
}

// Line is one validated draft purchase line.
type Line struct {
	ID id.ID
	Form
}

// NewItemAttrs is the parsed form of NewItemSpec, ready for the wire.
type NewItemAttrs struct {
	Name          string
	Brand         string
	Barcode       string
	SellingPrice  decimal.Decimal
	IsPack        bool
	PackSize      int64
	PackPrice     decimal.Decimal
	CategoryID    *int64
	MinStockAlert float64
}

// CommitLine is a validated line ready for the remote service. TotalCost is
// the raw purchase total; the service derives the weighted unit cost itself.
type CommitLine struct {
	ItemID            int64
	NewItem           *NewItemAttrs
	Quantity          decimal.Decimal
	UnitsPerSelection int64
	IsPack            bool
	TotalCost         decimal.Decimal
}

// Committer sends a validated batch to the remote service.
type Committer interface {
	Replenish(ctx context.Context, lines []CommitLine) error
}

// DraftList is an ordered, editable list of draft lines. Not safe for
// concurrent use; the owning session serializes access.
type DraftList struct {
	view  cart.CatalogView
	lines []Line
}

// NewDraftList creates an empty draft over the given catalog view.
func NewDraftList(view cart.CatalogView) *DraftList {
	return &DraftList{view: view}
}

// Add validates the form and appends a new line. On validation failure
// nothing is appended and the error names the offending field.
func (d *DraftList) Add(f Form) (Line, error) {
	if _, err := d.validate(f); err != nil {
		return Line{}, err
	}
	line := Line{ID: id.New(), Form: f}
	d.lines = append(d.lines, line)
	return line, nil
}

// Update validates and replaces the form of the line at index.
// Out-of-range indexes are ignored.
func (d *DraftList) Update(index int, f Form) error {
	if index < 0 || index >= len(d.lines) {
		return nil
	}
	if _, err := d.validate(f); err != nil {
		return err
	}
	d.lines[index].Form = f
	return nil
}

// Remove deletes the line at index, preserving the order of the rest.
// Out-of-range indexes are ignored.
func (d *DraftList) Remove(index int) {
	if index < 0 || index >= len(d.lines) {
		return
	}
	d.lines = append(d.lines[:index], d.lines[index+1:]...)
}

// Lines returns the draft lines in entry order.
func (d *DraftList) Lines() []Line {
	out := make([]Line, len(d.lines))
	copy(out, d.lines)
	return out
}

// Len returns the number of draft lines.
func (d *DraftList) Len() int { return len(d.lines) }

// Clear drops every line.
func (d *DraftList) Clear() { d.lines = nil }

// Preview derives the live cost breakdown of the line at index.
// Out-of-range indexes preview as zero.
func (d *DraftList) Preview(index int) costing.Costs {
	if index < 0 || index >= len(d.lines) {
		return costing.Costs{UnitCost: decimal.Zero, PackCost: decimal.Zero}
	}
	line := d.lines[index]
	return costing.DeriveFromStrings(line.TotalCost, line.Quantity, d.unitsPerSelection(line.Form))
}

// PreviewForm derives the live cost breakdown of a form being typed,
// coercing incomplete fields to zero.
func (d *DraftList) PreviewForm(f Form) costing.Costs {
	return costing.DeriveFromStrings(f.TotalCost, f.Quantity, d.unitsPerSelection(f))
}

// unitsPerSelection resolves the pack multiplier leniently for previews.
func (d *DraftList) unitsPerSelection(f Form) int64 {
	if f.NewItem != nil {
		if !f.Selector.IsPack() {
			return 1
		}
		size, err := parsePackSize(f.NewItem.PackSize)
		if err != nil {
			return 1
		}
		return size
	}
	if item, err := d.view.Item(f.ItemID); err == nil {
		if res, err := catalog.Resolve(item, f.Selector); err == nil {
			return res.UnitsPerSelection
		}
	}
	return 1
}

// Commit re-validates every line, sends the batch, and clears the draft
// only after the committer succeeds. On any error the draft is left exactly
// as it was, in order, for a retry.
func (d *DraftList) Commit(ctx context.Context, c Committer) error {
	if len(d.lines) == 0 {
		return apperror.NewValidation("draft is empty")
	}

	out := make([]CommitLine, 0, len(d.lines))
	for i, line := range d.lines {
		cl, err := d.validate(line.Form)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				appErr.WithDetail("line", i)
			}
			return err
		}
		out = append(out, cl)
	}

	if err := c.Replenish(ctx, out); err != nil {
		return err
	}
	d.lines = nil
	return nil
}

// validate turns one form into a CommitLine. Unlike the live preview,
// missing or malformed fields are hard errors here.
func (d *DraftList) validate(f Form) (CommitLine, error) {
	cl := CommitLine{ItemID: f.ItemID, IsPack: f.Selector.IsPack()}

	switch {
	case f.NewItem != nil:
		attrs, perSel, err := validateNewItem(f.NewItem, f.Selector)
		if err != nil {
			return CommitLine{}, err
		}
		cl.NewItem = attrs
		cl.UnitsPerSelection = perSel

	case f.ItemID != 0:
		item, err := d.view.Item(f.ItemID)
		if err != nil {
			return CommitLine{}, err
		}
		res, err := catalog.Resolve(item, f.Selector)
		if err != nil {
			return CommitLine{}, err
		}
		cl.UnitsPerSelection = res.UnitsPerSelection

	default:
		return CommitLine{}, apperror.NewIncompleteDraft("item")
	}

	if f.Quantity == "" {
		return CommitLine{}, apperror.NewIncompleteDraft("quantity")
	}
	qty, err := decimal.NewFromString(f.Quantity)
	if err != nil || !qty.IsPositive() {
		return CommitLine{}, apperror.NewIncompleteDraft("quantity")
	}
	cl.Quantity = qty

	if f.TotalCost == "" {
		return CommitLine{}, apperror.NewIncompleteDraft("cost")
	}
	cost, err := decimal.NewFromString(f.TotalCost)
	if err != nil || cost.IsNegative() {
		return CommitLine{}, apperror.NewIncompleteDraft("cost")
	}
	cl.TotalCost = cost

	return cl, nil
}

// validateNewItem checks a new-item spec and returns the parsed attributes
// plus the units-per-selection multiplier implied by the selector.
func validateNewItem(spec *NewItemSpec, sel catalog.FormatSelector) (*NewItemAttrs, int64, error) {
	if spec.Name == "" {
		return nil, 0, apperror.NewIncompleteDraft("name")
	}
	if spec.SellingPrice == "" {
		return nil, 0, apperror.NewIncompleteDraft("selling_price")
	}
	price, err := decimal.NewFromString(spec.SellingPrice)
	if err != nil || price.IsNegative() {
		return nil, 0, apperror.NewIncompleteDraft("selling_price")
	}

	attrs := &NewItemAttrs{
		Name:         spec.Name,
		Brand:        spec.Brand,
		Barcode:      spec.Barcode,
		SellingPrice: price,
		CategoryID:   spec.CategoryID,
	}

	perSel := int64(1)
	if sel.IsPack() {
		// New items only carry the default pack; extra formats are
		// created through the item editor afterwards.
		if sel.Kind == catalog.KindExtraPack {
			return nil, 0, apperror.NewFormatNotFound(spec.Name, sel.FormatID)
		}
		size, err := parsePackSize(spec.PackSize)
		if err != nil {
			return nil, 0, apperror.NewIncompleteDraft("pack_size")
		}
		attrs.IsPack = true
		attrs.PackSize = size
		perSel = size

		if spec.PackPrice != "" {
			pp, err := decimal.NewFromString(spec.PackPrice)
			if err != nil || pp.IsNegative() {
				return nil, 0, apperror.NewIncompleteDraft("pack_price")
			}
			attrs.PackPrice = pp
		}
	}

	if spec.MinStockAlert != "" {
		min, err := decimal.NewFromString(spec.MinStockAlert)
		if err != nil || min.IsNegative() {
			return nil, 0, apperror.NewIncompleteDraft("min_stock_alert")
		}
		attrs.MinStockAlert, _ = min.Float64()
	}

	return attrs, perSel, nil
}

func parsePackSize(raw string) (int64, error) {
	size, err := decimal.NewFromString(raw)
	if err != nil || !size.IsPositive() || !size.IsInteger() {
		return 0, apperror.NewIncompleteDraft("pack_size")
	}
	return size.IntPart(), nil
}
