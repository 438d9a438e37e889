package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"

	"abasto/internal/core/apperror"
)

// FormatKind discriminates the ways a catalog item can be selected for sale.
type FormatKind string

const (
	// KindUnit sells a single base unit.
	KindUnit FormatKind = "unit"
	// KindDefaultPack sells the item's built-in pack.
	KindDefaultPack FormatKind = "default_pack"
	// KindExtraPack sells one of the item's additional named formats.
	KindExtraPack FormatKind = "extra_pack"
)

// FormatSelector identifies one sale format of an item. FormatID is only
// meaningful for KindExtraPack. The zero value is a unit selector.
type FormatSelector struct {
	Kind     FormatKind `json:"kind"`
	FormatID int64      `json:"format_id,omitempty"`
}

// Unit selects the base-unit format.
func Unit() FormatSelector { return FormatSelector{Kind: KindUnit} }

// DefaultPack selects the item's built-in pack format.
func DefaultPack() FormatSelector { return FormatSelector{Kind: KindDefaultPack} }

// PackOf selects an additional named format by id.
func PackOf(formatID int64) FormatSelector {
	return FormatSelector{Kind: KindExtraPack, FormatID: formatID}
}

// IsPack reports whether the selector targets any pack format.
func (s FormatSelector) IsPack() bool { return s.Kind != KindUnit }

// Key returns a stable string form used for map keys and wire payloads,
// e.g. "unit", "pack:default", "pack:42".
func (s FormatSelector) Key() string {
	switch s.Kind {
	case KindDefaultPack:
		return "pack:default"
	case KindExtraPack:
		return fmt.Sprintf("pack:%d", s.FormatID)
	default:
		return "unit"
	}
}

// Less orders selectors unit < default pack < extra packs by id.
func (s FormatSelector) Less(o FormatSelector) bool {
	if s.Kind != o.Kind {
		return kindRank(s.Kind) < kindRank(o.Kind)
	}
	return s.FormatID < o.FormatID
}

func kindRank(k FormatKind) int {
	switch k {
	case KindUnit:
		return 0
	case KindDefaultPack:
		return 1
	default:
		return 2
	}
}

// Resolution is the concrete meaning of a selector for a given item:
// how many base units one selection consumes, and its price.
type Resolution struct {
	UnitsPerSelection int64
	PricePerSelection decimal.Decimal
}

// Resolve maps a selector onto an item.
//
// Unit selections always resolve. The default pack requires the item to be
// pack-eligible; when the item carries no explicit pack price the price
// falls back to selling price times pack size. Extra formats must belong
// to the item.
func Resolve(item *Item, sel FormatSelector) (Resolution, error) {
	switch sel.Kind {
	case KindUnit:
		return Resolution{UnitsPerSelection: 1, PricePerSelection: item.SellingPrice}, nil

	case KindDefaultPack:
		if !item.IsPack || item.PackSize <= 0 {
			return Resolution{}, apperror.NewFormatNotFound(item.ID, "default")
		}
		price := item.SellingPrice.Mul(decimal.NewFromInt(item.PackSize))
		if item.PackPrice != nil && item.PackPrice.IsPositive() {
			price = *item.PackPrice
		}
		return Resolution{UnitsPerSelection: item.PackSize, PricePerSelection: price}, nil

	case KindExtraPack:
		f, ok := item.extraFormat(sel.FormatID)
		if !ok {
			return Resolution{}, apperror.NewFormatNotFound(item.ID, sel.FormatID)
		}
		return Resolution{UnitsPerSelection: f.PackSize, PricePerSelection: f.PackPrice}, nil

	default:
		return Resolution{}, apperror.NewFormatNotFound(item.ID, string(sel.Kind))
	}
}
