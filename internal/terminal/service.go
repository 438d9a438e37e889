// Package terminal orchestrates the point-of-sale workflows: catalog
// refresh, checkout, quick sell, draft commit and price mutations. Handlers
// talk to this service; it owns the ordering between remote calls, the
// local journal and the snapshot refresh.
package terminal

import (
	"context"
	"time"

	"abasto/internal/core/apperror"
	"abasto/pkg/logger"

	"abasto/internal/bulkprice"
	"abasto/internal/cart"
	"abasto/internal/catalog"
	"abasto/internal/journal"
	"abasto/internal/remote"
	"abasto/internal/replenish"
	"abasto/internal/session"
)

// RemoteAPI is the remote service surface the terminal uses. Implemented by
// *remote.Client.
type RemoteAPI interface {
	FetchCatalog(ctx context.Context) ([]catalog.Item, error)
	FetchCategories(ctx context.Context, typ string) ([]catalog.Category, error)
	SubmitSale(ctx context.Context, lines []cart.Line, description string) (remote.SaleResult, error)
	QuickSell(ctx context.Context, itemID int64, quantity float64, isPack bool) (remote.SaleResult, error)
	Replenish(ctx context.Context, lines []replenish.CommitLine) error
	BulkPriceUpdate(ctx context.Context, req bulkprice.Request) error
	UpdateItem(ctx context.Context, item catalog.Item) (catalog.Item, error)
	DeleteItem(ctx context.Context, itemID int64) error
}

// Recorder appends to the local commit journal. Implemented by
// *journal.Journal.
type Recorder interface {
	Append(kind string, payload any) (journal.Entry, error)
}

// SnapshotCache persists snapshots for warm starts. Implemented by
// *cache.Cache.
type SnapshotCache interface {
	Save(ctx context.Context, items []catalog.Item, cats []catalog.Category, fetchedAt time.Time) error
	Load(ctx context.Context) (items []catalog.Item, cats []catalog.Category, fetchedAt time.Time, ok bool, err error)
}

// Service wires the terminal's moving parts together.
type Service struct {
	store    *catalog.Store
	sessions *session.Manager
	remote   RemoteAPI

	// Optional; nil disables journaling / warm starts.
	journal Recorder
	cache   SnapshotCache
}

// New creates the terminal service.
func New(store *catalog.Store, sessions *session.Manager, api RemoteAPI, rec Recorder, sc SnapshotCache) *Service {
	return &Service{
		store:    store,
		sessions: sessions,
		remote:   api,
		journal:  rec,
		cache:    sc,
	}
}

// Store exposes the catalog store for read-only handlers.
func (s *Service) Store() *catalog.Store { return s.store }

// Sessions exposes the session manager.
func (s *Service) Sessions() *session.Manager { return s.sessions }

// WarmStart installs the cached snapshot, if any, so the UI has a catalog
// before the first remote fetch completes. The snapshot is stale by
// definition; Refresh replaces it.
func (s *Service) WarmStart(ctx context.Context) bool {
	if s.cache == nil {
		return false
	}
	items, cats, fetchedAt, ok, err := s.cache.Load(ctx)
	if err != nil {
		logger.Warn(ctx, "snapshot cache load failed", "error", err)
		return false
	}
	if !ok {
		return false
	}
	s.store.Replace(catalog.NewSnapshot(items, cats, fetchedAt))
	logger.Info(ctx, "warm start from cached snapshot",
		"items", len(items), "fetched_at", fetchedAt)
	return true
}

// Refresh fetches the catalog and swaps the snapshot. The cache write is
// best-effort.
func (s *Service) Refresh(ctx context.Context) error {
	items, err := s.remote.FetchCatalog(ctx)
	if err != nil {
		return err
	}
	cats, err := s.remote.FetchCategories(ctx, "")
	if err != nil {
		return err
	}
	fetchedAt := time.Now()
	s.store.Replace(catalog.NewSnapshot(items, cats, fetchedAt))

	if s.cache != nil {
		if err := s.cache.Save(ctx, items, cats, fetchedAt); err != nil {
			logger.Warn(ctx, "snapshot cache save failed", "error", err)
		}
	}
	return nil
}

// refreshAfterMutation re-fetches the catalog after a remote write. The
// write already succeeded, so a failed refresh only means a staler snapshot
// until the next cycle.
func (s *Service) refreshAfterMutation(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		logger.Warn(ctx, "post-mutation refresh failed", "error", err)
	}
}

func (s *Service) record(ctx context.Context, kind string, payload any) {
	if s.journal == nil {
		return
	}
	if _, err := s.journal.Append(kind, payload); err != nil {
		logger.Error(ctx, "journal append failed", "kind", kind, "error", err)
	}
}

// Checkout submits a session's cart as one sale. The cart must be non-empty
// and free of stale lines; it is cleared only after the remote accepts.
func (s *Service) Checkout(ctx context.Context, sess *session.Session, description string) (remote.SaleResult, error) {
	var res remote.SaleResult
	err := sess.Do(func(c *cart.Aggregator, _ *replenish.DraftList) error {
		if c.IsEmpty() {
			return apperror.NewValidation("cart is empty")
		}
		lines := c.Lines()
		for _, l := range lines {
			if l.Missing {
				return apperror.NewValidation("cart contains items no longer in the catalog").
					WithDetail("item_id", l.Key.ItemID)
			}
		}

		var err error
		res, err = s.remote.SubmitSale(ctx, lines, description)
		if err != nil {
			return err
		}
		s.record(ctx, journal.KindSale, res)
		c.Clear()
		return nil
	})
	if err != nil {
		return remote.SaleResult{}, err
	}
	s.refreshAfterMutation(ctx)
	return res, nil
}

// QuickSell sells one line without a cart, e.g. a scan in quick mode. The
// item and format are validated against the snapshot before the remote call.
func (s *Service) QuickSell(ctx context.Context, itemID int64, quantity float64, isPack bool) (remote.SaleResult, error) {
	if quantity <= 0 {
		return remote.SaleResult{}, apperror.NewValidation("quantity must be positive")
	}
	item, err := s.store.Item(itemID)
	if err != nil {
		return remote.SaleResult{}, err
	}
	sel := catalog.Unit()
	if isPack {
		sel = catalog.DefaultPack()
	}
	if _, err := catalog.Resolve(item, sel); err != nil {
		return remote.SaleResult{}, err
	}

	res, err := s.remote.QuickSell(ctx, itemID, quantity, isPack)
	if err != nil {
		return remote.SaleResult{}, err
	}
	s.record(ctx, journal.KindQuickSell, res)
	s.refreshAfterMutation(ctx)
	return res, nil
}

// CommitDraft validates and sends a session's replenishment draft.
func (s *Service) CommitDraft(ctx context.Context, sess *session.Session) error {
	err := sess.Do(func(_ *cart.Aggregator, d *replenish.DraftList) error {
		lines := d.Lines()
		if err := d.Commit(ctx, s.remote); err != nil {
			return err
		}
		s.record(ctx, journal.KindReplenish, map[string]any{"lines": len(lines)})
		return nil
	})
	if err != nil {
		return err
	}
	s.refreshAfterMutation(ctx)
	return nil
}

// ApplyBulkPrice validates and submits a price mutation, returning the
// parsed request and its preview against the pre-mutation snapshot.
func (s *Service) ApplyBulkPrice(ctx context.Context, m bulkprice.Mutation) (bulkprice.Request, bulkprice.Preview, error) {
	req, err := m.Validate()
	if err != nil {
		return bulkprice.Request{}, bulkprice.Preview{}, err
	}
	preview := req.PreviewAgainst(s.store.Current())

	if err := s.remote.BulkPriceUpdate(ctx, req); err != nil {
		return bulkprice.Request{}, bulkprice.Preview{}, err
	}
	s.record(ctx, journal.KindBulkPrice, map[string]any{
		"scope":      req.Scope,
		"target":     req.TargetField,
		"percentage": req.Percentage.String(),
		"affected":   preview.AffectedCount,
	})
	s.refreshAfterMutation(ctx)
	return req, preview, nil
}

// PreviewBulkPrice validates a mutation and previews it without submitting.
func (s *Service) PreviewBulkPrice(m bulkprice.Mutation) (bulkprice.Preview, error) {
	req, err := m.Validate()
	if err != nil {
		return bulkprice.Preview{}, err
	}
	return req.PreviewAgainst(s.store.Current()), nil
}

// UpdateItem pushes edited item fields to the remote service.
func (s *Service) UpdateItem(ctx context.Context, item catalog.Item) (catalog.Item, error) {
	if _, err := s.store.Item(item.ID); err != nil {
		return catalog.Item{}, err
	}
	out, err := s.remote.UpdateItem(ctx, item)
	if err != nil {
		return catalog.Item{}, err
	}
	s.record(ctx, journal.KindItemEdit, map[string]any{"item_id": item.ID})
	s.refreshAfterMutation(ctx)
	return out, nil
}

// DeleteItem removes an item from the remote catalog.
func (s *Service) DeleteItem(ctx context.Context, itemID int64) error {
	if _, err := s.store.Item(itemID); err != nil {
		return err
	}
	if err := s.remote.DeleteItem(ctx, itemID); err != nil {
		return err
	}
	s.record(ctx, journal.KindItemDelete, map[string]any{"item_id": itemID})
	s.refreshAfterMutation(ctx)
	return nil
}

// Scan resolves a scanned barcode against the current snapshot.
func (s *Service) Scan(code string) (*catalog.Item, error) {
	item, ok := s.store.Current().ItemByBarcode(code)
	if !ok {
		return nil, apperror.NewNotFound("barcode", code)
	}
	return item, nil
}

// RunRefreshLoop re-fetches the catalog on a fixed interval and purges idle
// sessions, until ctx is cancelled.
func (s *Service) RunRefreshLoop(ctx context.Context, interval, sessionMaxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				logger.Warn(ctx, "periodic refresh failed", "error", err)
			}
			if n := s.sessions.Purge(sessionMaxIdle); n > 0 {
				logger.Info(ctx, "purged idle sessions", "count", n)
			}
		}
	}
}
