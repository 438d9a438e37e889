package catalog

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"abasto/internal/core/apperror"
)

// Snapshot is an immutable view of the catalog at one point in time.
// Carts and draft lists resolve items against a snapshot; a refresh swaps
// the whole snapshot rather than mutating items in place.
type Snapshot struct {
	FetchedAt time.Time

	items     map[int64]*Item
	order     []int64 // item ids sorted by display name
	byBarcode map[string]int64
	cats      map[int64]Category
}

// NewSnapshot builds a snapshot from a catalog fetch.
func NewSnapshot(items []Item, cats []Category, fetchedAt time.Time) *Snapshot {
	s := &Snapshot{
		FetchedAt: fetchedAt,
		items:     make(map[int64]*Item, len(items)),
		byBarcode: make(map[string]int64),
		cats:      make(map[int64]Category, len(cats)),
	}
	for i := range items {
		it := &items[i]
		s.items[it.ID] = it
		s.order = append(s.order, it.ID)
		if it.Barcode != nil && *it.Barcode != "" {
			s.byBarcode[NormalizeBarcode(*it.Barcode)] = it.ID
		}
	}
	sort.Slice(s.order, func(a, b int) bool {
		ia, ib := s.items[s.order[a]], s.items[s.order[b]]
		na, nb := strings.ToLower(ia.DisplayName()), strings.ToLower(ib.DisplayName())
		if na != nb {
			return na < nb
		}
		return ia.ID < ib.ID
	})
	for _, c := range cats {
		s.cats[c.ID] = c
	}
	return s
}

// Item returns the item by id or ItemNotFound.
func (s *Snapshot) Item(id int64) (*Item, error) {
	if it, ok := s.items[id]; ok {
		return it, nil
	}
	return nil, apperror.NewItemNotFound(id)
}

// ItemByBarcode resolves a scanned code against the barcode index.
// The code is normalized before lookup.
func (s *Snapshot) ItemByBarcode(code string) (*Item, bool) {
	id, ok := s.byBarcode[NormalizeBarcode(code)]
	if !ok {
		return nil, false
	}
	return s.items[id], true
}

// Items returns all items sorted by display name.
func (s *Snapshot) Items() []*Item {
	out := make([]*Item, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

// Category returns the category by id.
func (s *Snapshot) Category(id int64) (Category, bool) {
	c, ok := s.cats[id]
	return c, ok
}

// Categories returns all categories sorted by name.
func (s *Snapshot) Categories() []Category {
	out := make([]Category, 0, len(s.cats))
	for _, c := range s.cats {
		out = append(out, c)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// Brands returns the distinct non-empty brands, sorted.
func (s *Snapshot) Brands() []string {
	seen := make(map[string]struct{})
	for _, it := range s.items {
		if it.Brand != "" {
			seen[it.Brand] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for b := range seen {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// LowStock returns items at or below their alert threshold, sorted by name.
func (s *Snapshot) LowStock() []*Item {
	var out []*Item
	for _, id := range s.order {
		if it := s.items[id]; it.IsLowStock() {
			out = append(out, it)
		}
	}
	return out
}

// InventoryValue sums quantity times unit cost over the whole catalog.
func (s *Snapshot) InventoryValue() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.Quantity.Decimal().Mul(it.UnitCost))
	}
	return total
}

// Len returns the number of items in the snapshot.
func (s *Snapshot) Len() int { return len(s.items) }

// Store holds the terminal's current catalog snapshot. Readers get a
// consistent *Snapshot; a refresh replaces it atomically.
type Store struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{snap: NewSnapshot(nil, nil, time.Time{})}
}

// Current returns the snapshot in effect.
func (st *Store) Current() *Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.snap
}

// Replace installs a new snapshot.
func (st *Store) Replace(s *Snapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.snap = s
}

// Item resolves an item against the current snapshot. Satisfies the
// cart aggregator's catalog view.
func (st *Store) Item(id int64) (*Item, error) {
	return st.Current().Item(id)
}
