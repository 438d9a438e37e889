package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abasto/internal/core/types"
)

func strPtr(s string) *string { return &s }

func testSnapshot() *Snapshot {
	items := []Item{
		{ID: 1, Name: "Yerba", Brand: "Taragui", Barcode: strPtr("7790387000153"),
			Quantity: types.NewQuantityFromInt64(20), SellingPrice: dec("1500"), UnitCost: dec("900")},
		{ID: 2, Name: "Cola", Brand: "Manaos", Barcode: strPtr("779123"),
			Quantity: types.NewQuantityFromInt64(3), SellingPrice: dec("800"), UnitCost: dec("400")},
		{ID: 3, Name: "Pan", Quantity: types.NewQuantityFromFloat64(2.5),
			SellingPrice: dec("600"), UnitCost: dec("200"), MinStockAlert: 10},
	}
	cats := []Category{{ID: 1, Name: "Bebidas"}, {ID: 2, Name: "Almacen"}}
	return NewSnapshot(items, cats, time.Now())
}

func TestSnapshotLookup(t *testing.T) {
	s := testSnapshot()

	it, err := s.Item(1)
	require.NoError(t, err)
	assert.Equal(t, "Taragui Yerba", it.DisplayName())

	_, err = s.Item(999)
	require.Error(t, err)
}

func TestSnapshotBarcodeIndex(t *testing.T) {
	s := testSnapshot()

	// Exact code.
	it, ok := s.ItemByBarcode("7790387000153")
	require.True(t, ok)
	assert.Equal(t, int64(1), it.ID)

	// Same number scanned as GTIN-14.
	it, ok = s.ItemByBarcode("07790387000153")
	require.True(t, ok)
	assert.Equal(t, int64(1), it.ID)

	// Short code is indexed padded, so any padding level matches.
	it, ok = s.ItemByBarcode("00000000779123")
	require.True(t, ok)
	assert.Equal(t, int64(2), it.ID)

	_, ok = s.ItemByBarcode("4000000000000")
	assert.False(t, ok)
}

func TestSnapshotOrderingAndBrands(t *testing.T) {
	s := testSnapshot()

	items := s.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "Manaos Cola", items[0].DisplayName())
	assert.Equal(t, "Pan", items[1].DisplayName())
	assert.Equal(t, "Taragui Yerba", items[2].DisplayName())

	assert.Equal(t, []string{"Manaos", "Taragui"}, s.Brands())
}

func TestSnapshotLowStock(t *testing.T) {
	s := testSnapshot()

	low := s.LowStock()
	require.Len(t, low, 2)
	// Cola: qty 3 <= default threshold 5. Pan: qty 2.5 <= explicit 10.
	assert.Equal(t, int64(2), low[0].ID)
	assert.Equal(t, int64(3), low[1].ID)
}

func TestSnapshotInventoryValue(t *testing.T) {
	s := testSnapshot()

	// 20*900 + 3*400 + 2.5*200 = 18000 + 1200 + 500
	assert.True(t, s.InventoryValue().Equal(dec("19700")),
		"value = %s", s.InventoryValue())
}

func TestStoreReplace(t *testing.T) {
	st := NewStore()
	assert.Equal(t, 0, st.Current().Len())

	st.Replace(testSnapshot())
	assert.Equal(t, 3, st.Current().Len())

	it, err := st.Item(2)
	require.NoError(t, err)
	assert.Equal(t, "Cola", it.Name)
}

func TestNormalizeBarcode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"7790387000153", "07790387000153"},
		{"07790387000153", "07790387000153"},
		{"49123456", "00000049123456"},
		{"  779123 ", "00000000779123"},
		{"SKU-42", "SKU-42"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeBarcode(tt.in), "input %q", tt.in)
	}
}
