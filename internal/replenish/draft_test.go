package replenish

import (
	"context"
	"errors"
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
		1: {ID: 1, Name: "Cola", Quantity: types.NewQuantityFromInt64(12),
			SellingPrice: dec("50"), IsPack: true, PackSize: 6},
		2: {ID: 2, Name: "Pan", Quantity: types.NewQuantityFromInt64(5),
			SellingPrice: dec("600")},
	}}
}

type fakeCommitter struct {
	calls [][]CommitLine
	err   error
}

func (f *fakeCommitter) Replenish(_ context.Context, lines []CommitLine) error {
	f.calls = append(f.calls, lines)
	return f.err
}

func TestAddUpdateRemove(t *testing.T) {
	d := NewDraftList(newView())

	_, err := d.Add(Form{ItemID: 1, Selector: catalog.Unit(), Quantity: "10", TotalCost: "1000"})
	require.NoError(t, err)
	_, err = d.Add(Form{ItemID: 2, Selector: catalog.Unit(), Quantity: "1", TotalCost: "100"})
	require.NoError(t, err)
	require.Equal(t, 2, d.Len())

	require.NoError(t, d.Update(1, Form{ItemID: 2, Selector: catalog.Unit(), Quantity: "5", TotalCost: "500"}))
	assert.Equal(t, "5", d.Lines()[1].Quantity)

	// Out-of-range edits are no-ops.
	require.NoError(t, d.Update(7, Form{ItemID: 1}))
	d.Remove(-1)
	d.Remove(7)
	require.Equal(t, 2, d.Len())

	d.Remove(0)
	require.Equal(t, 1, d.Len())
	assert.Equal(t, int64(2), d.Lines()[0].ItemID)
}

func TestAddIncompleteLine(t *testing.T) {
	tests := []struct {
		name      string
		form      Form
		wantField string
	}{
		{"missing item", Form{Quantity: "2", TotalCost: "100"}, "item"},
		{"missing quantity", Form{ItemID: 1, Selector: catalog.Unit(), TotalCost: "100"}, "quantity"},
		{"malformed quantity", Form{ItemID: 1, Selector: catalog.Unit(), Quantity: "2x", TotalCost: "100"}, "quantity"},
		{"zero quantity", Form{ItemID: 1, Selector: catalog.Unit(), Quantity: "0", TotalCost: "100"}, "quantity"},
		{"missing cost", Form{ItemID: 1, Selector: catalog.Unit(), Quantity: "2"}, "cost"},
		{"negative cost", Form{ItemID: 1, Selector: catalog.Unit(), Quantity: "2", TotalCost: "-5"}, "cost"},
		{"new item without name", Form{NewItem: &NewItemSpec{SellingPrice: "50"},
			Selector: catalog.Unit(), Quantity: "2", TotalCost: "100"}, "name"},
		{"new item without price", Form{NewItem: &NewItemSpec{Name: "Agua"},
			Selector: catalog.Unit(), Quantity: "2", TotalCost: "100"}, "selling_price"},
		{"new pack item without size", Form{NewItem: &NewItemSpec{Name: "Agua", SellingPrice: "50"},
			Selector: catalog.DefaultPack(), Quantity: "2", TotalCost: "100"}, "pack_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDraftList(newView())
			_, err := d.Add(tt.form)
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, apperror.CodeIncompleteDraft), "got %v", err)

			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantField, appErr.Details["field"])

			// Nothing was appended.
			assert.Equal(t, 0, d.Len())
		})
	}
}

func TestAddUnknownItemAndFormat(t *testing.T) {
	d := NewDraftList(newView())

	_, err := d.Add(Form{ItemID: 999, Selector: catalog.Unit(), Quantity: "1", TotalCost: "10"})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeItemNotFound))

	// Item 2 has no pack format.
	_, err = d.Add(Form{ItemID: 2, Selector: catalog.DefaultPack(), Quantity: "1", TotalCost: "10"})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeFormatNotFound))

	assert.Equal(t, 0, d.Len())
}

func TestPreview(t *testing.T) {
	d := NewDraftList(newView())
	_, err := d.Add(Form{ItemID: 1, Selector: catalog.DefaultPack(), Quantity: "2", TotalCost: "1200"})
	require.NoError(t, err)

	costs := d.Preview(0)
	assert.True(t, costs.UnitCost.Equal(dec("100")), "unit = %s", costs.UnitCost)
	assert.True(t, costs.PackCost.Equal(dec("600")), "pack = %s", costs.PackCost)

	assert.True(t, d.Preview(99).UnitCost.IsZero())

	// A half-typed form previews as zero instead of erroring.
	live := d.PreviewForm(Form{ItemID: 1, Selector: catalog.Unit(), Quantity: "", TotalCost: "90"})
	assert.True(t, live.UnitCost.IsZero())

	// New-item pack preview uses the entered pack size.
	live = d.PreviewForm(Form{
		NewItem:  &NewItemSpec{Name: "Agua", SellingPrice: "50", PackSize: "6"},
		Selector: catalog.DefaultPack(), Quantity: "2", TotalCost: "1200",
	})
	assert.True(t, live.UnitCost.Equal(dec("100")))
	assert.True(t, live.PackCost.Equal(dec("600")))
}

func TestCommitSuccess(t *testing.T) {
	d := NewDraftList(newView())
	_, err := d.Add(Form{ItemID: 1, Selector: catalog.DefaultPack(), Quantity: "2", TotalCost: "1200"})
	require.NoError(t, err)
	_, err = d.Add(Form{
		NewItem: &NewItemSpec{Name: "Agua", Brand: "Villa", SellingPrice: "400",
			PackSize: "12", PackPrice: "4500", MinStockAlert: "10"},
		Selector: catalog.DefaultPack(), Quantity: "3", TotalCost: "9000",
	})
	require.NoError(t, err)

	c := &fakeCommitter{}
	require.NoError(t, d.Commit(context.Background(), c))

	require.Len(t, c.calls, 1)
	lines := c.calls[0]
	require.Len(t, lines, 2)

	assert.Equal(t, int64(1), lines[0].ItemID)
	assert.Equal(t, int64(6), lines[0].UnitsPerSelection)
	assert.True(t, lines[0].IsPack)
	assert.True(t, lines[0].TotalCost.Equal(dec("1200")))
	assert.Nil(t, lines[0].NewItem)

	require.NotNil(t, lines[1].NewItem)
	assert.Equal(t, "Agua", lines[1].NewItem.Name)
	assert.True(t, lines[1].NewItem.SellingPrice.Equal(dec("400")))
	assert.Equal(t, int64(12), lines[1].NewItem.PackSize)
	assert.True(t, lines[1].NewItem.PackPrice.Equal(dec("4500")))
	assert.Equal(t, float64(10), lines[1].NewItem.MinStockAlert)
	assert.Equal(t, int64(12), lines[1].UnitsPerSelection)

	// Success clears the draft.
	assert.Equal(t, 0, d.Len())
}

func TestCommitRemoteFailureKeepsDraft(t *testing.T) {
	d := NewDraftList(newView())
	_, err := d.Add(Form{ItemID: 1, Selector: catalog.Unit(), Quantity: "3", TotalCost: "300"})
	require.NoError(t, err)
	_, err = d.Add(Form{ItemID: 2, Selector: catalog.Unit(), Quantity: "1", TotalCost: "100"})
	require.NoError(t, err)

	c := &fakeCommitter{err: errors.New("connection refused")}
	err = d.Commit(context.Background(), c)
	require.Error(t, err)

	// Lines survive in entry order for a retry.
	require.Equal(t, 2, d.Len())
	assert.Equal(t, int64(1), d.Lines()[0].ItemID)
	assert.Equal(t, int64(2), d.Lines()[1].ItemID)
}

func TestCommitStaleLine(t *testing.T) {
	view := newView()
	d := NewDraftList(view)
	_, err := d.Add(Form{ItemID: 2, Selector: catalog.Unit(), Quantity: "1", TotalCost: "100"})
	require.NoError(t, err)

	// The item vanishes between add and commit.
	delete(view.items, 2)

	c := &fakeCommitter{}
	err = d.Commit(context.Background(), c)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeItemNotFound))
	assert.Empty(t, c.calls)
	assert.Equal(t, 1, d.Len())
}

func TestCommitEmptyDraft(t *testing.T) {
	d := NewDraftList(newView())
	err := d.Commit(context.Background(), &fakeCommitter{})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
