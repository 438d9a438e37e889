package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abasto/internal/core/apperror"
	"abasto/internal/core/types"

	"abasto/internal/catalog"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func qty(f float64) types.Quantity { return types.NewQuantityFromFloat64(f) }

// fakeView serves a fixed item set; tests mutate it to simulate refreshes.
type fakeView struct {
	items map[int64]*catalog.Item
}

func (v *fakeView) Item(id int64) (*catalog.Item, error) {
	if it, ok := v.items[id]; ok {
		return it, nil
	}
	return nil, apperror.NewItemNotFound(id)
}

func newView() *fakeView {
	return &fakeView{items: map[int64]*catalog.Item{
		1: {ID: 1, Name: "Cola", Brand: "Manaos",
			Quantity:     types.NewQuantityFromInt64(12),
			SellingPrice: dec("50"), IsPack: true, PackSize: 6, PackPrice: decPtr("280")},
		2: {ID: 2, Name: "Pan",
			Quantity:     types.NewQuantityFromFloat64(2.5),
			SellingPrice: dec("600")},
		3: {ID: 3, Name: "Yerba",
			Quantity:     types.NewQuantityFromInt64(10),
			SellingPrice: dec("1500"),
			Formats: []catalog.ExtraFormat{
				{ID: 30, ItemID: 3, PackSize: 4, PackPrice: dec("5500")},
			}},
	}}
}

func TestSetQuantityAndTotals(t *testing.T) {
	c := New(newView())

	require.NoError(t, c.SetQuantity(1, catalog.Unit(), qty(3)))
	require.NoError(t, c.SetQuantity(1, catalog.DefaultPack(), qty(1)))

	lines := c.Lines()
	require.Len(t, lines, 2)

	// Unit line first, then the pack.
	assert.Equal(t, catalog.KindUnit, lines[0].Key.Selector.Kind)
	assert.True(t, lines[0].Total.Equal(dec("150")))
	assert.Equal(t, catalog.KindDefaultPack, lines[1].Key.Selector.Kind)
	assert.True(t, lines[1].Total.Equal(dec("280")))

	assert.True(t, c.Total().Equal(dec("430")), "total = %s", c.Total())
}

func TestStockCeilingSpansFormats(t *testing.T) {
	c := New(newView())

	// Item 1 has 12 base units. One six-pack plus six units fits exactly.
	require.NoError(t, c.SetQuantity(1, catalog.DefaultPack(), qty(1)))
	require.NoError(t, c.SetQuantity(1, catalog.Unit(), qty(6)))

	// A seventh unit would need 13 base units.
	err := c.SetQuantity(1, catalog.Unit(), qty(7))
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Message, "Manaos Cola")
	assert.Equal(t, float64(13), appErr.Details["requested"])
	assert.Equal(t, float64(12), appErr.Details["available"])

	// Rejected write leaves the cart unchanged.
	assert.Equal(t, qty(6), c.Quantity(1, catalog.Unit()))
	assert.Equal(t, qty(1), c.Quantity(1, catalog.DefaultPack()))
}

func TestSecondPackOverCeiling(t *testing.T) {
	c := New(newView())

	require.NoError(t, c.SetQuantity(1, catalog.DefaultPack(), qty(2)))
	err := c.SetQuantity(1, catalog.DefaultPack(), qty(3))
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, qty(2), c.Quantity(1, catalog.DefaultPack()))
}

func TestFractionalQuantities(t *testing.T) {
	c := New(newView())

	require.NoError(t, c.SetQuantity(2, catalog.Unit(), qty(2.5)))
	assert.True(t, c.Total().Equal(dec("1500")))

	err := c.SetQuantity(2, catalog.Unit(), qty(2.6))
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestZeroQuantityRemovesLine(t *testing.T) {
	c := New(newView())

	require.NoError(t, c.SetQuantity(1, catalog.Unit(), qty(2)))
	require.NoError(t, c.SetQuantity(1, catalog.Unit(), qty(0)))
	assert.True(t, c.IsEmpty())

	// Removing an absent line is a no-op even for unknown items.
	require.NoError(t, c.SetQuantity(999, catalog.Unit(), qty(0)))
}

func TestIncrementDecrement(t *testing.T) {
	c := New(newView())

	require.NoError(t, c.Add(3, catalog.PackOf(30)))
	require.NoError(t, c.Add(3, catalog.PackOf(30)))
	assert.Equal(t, qty(2), c.Quantity(3, catalog.PackOf(30)))

	// 2 packs of 4 = 8 base units of 10; a third would need 12.
	err := c.Add(3, catalog.PackOf(30))
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	c.Decrement(3, catalog.PackOf(30), qty(1))
	assert.Equal(t, qty(1), c.Quantity(3, catalog.PackOf(30)))

	c.Decrement(3, catalog.PackOf(30), qty(5))
	assert.True(t, c.IsEmpty())
}

func TestUnknownItemAndFormat(t *testing.T) {
	c := New(newView())

	err := c.SetQuantity(999, catalog.Unit(), qty(1))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeItemNotFound))

	// Item 2 is not pack-eligible.
	err = c.SetQuantity(2, catalog.DefaultPack(), qty(1))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeFormatNotFound))

	assert.True(t, c.IsEmpty())
}

func TestStaleLineAfterRefresh(t *testing.T) {
	view := newView()
	c := New(view)

	require.NoError(t, c.SetQuantity(1, catalog.Unit(), qty(2)))
	require.NoError(t, c.SetQuantity(2, catalog.Unit(), qty(1)))

	// Item 1 disappears on refresh.
	delete(view.items, 1)

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.True(t, lines[0].Missing)
	assert.True(t, lines[0].Total.IsZero())
	assert.False(t, lines[1].Missing)

	// Total only counts resolvable lines.
	assert.True(t, c.Total().Equal(dec("600")))

	// The stale line can still be removed.
	c.Remove(1, catalog.Unit())
	assert.Equal(t, 1, c.Len())
}

func TestClear(t *testing.T) {
	c := New(newView())
	require.NoError(t, c.SetQuantity(1, catalog.Unit(), qty(2)))
	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.True(t, c.Total().IsZero())
}
