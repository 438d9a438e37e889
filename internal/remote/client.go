// Package remote is the HTTP client for the central catalog/sales service.
// The terminal never writes stock figures itself; every mutation goes
// through here and the catalog is re-fetched afterwards.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"abasto/internal/core/apperror"
	"abasto/pkg/logger"

	"abasto/internal/bulkprice"
	"abasto/internal/cart"
	"abasto/internal/catalog"
	"abasto/internal/replenish"
)

const defaultTimeout = 15 * time.Second

// Client talks to the remote service. It implements replenish.Committer and
// bulkprice.Submitter.
type Client struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
}

// New creates a client for the service at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		tracer:  otel.Tracer("abasto/remote"),
	}
}

// NewWithHTTPClient creates a client with a caller-supplied http.Client,
// mainly for tests.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	c := New(baseURL)
	c.http = hc
	return c
}

// FetchCatalog retrieves the full item list.
func (c *Client) FetchCatalog(ctx context.Context) ([]catalog.Item, error) {
	var items []catalog.Item
	if err := c.do(ctx, http.MethodGet, "/stock/", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FetchCategories retrieves the category list, optionally filtered by type.
func (c *Client) FetchCategories(ctx context.Context, typ string) ([]catalog.Category, error) {
	path := "/categories/"
	if typ != "" {
		path += "?type=" + url.QueryEscape(typ)
	}
	var cats []catalog.Category
	if err := c.do(ctx, http.MethodGet, path, nil, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// saleLine is the wire form of one cart line.
type saleLine struct {
	ItemID   int64   `json:"item_id"`
	Quantity float64 `json:"quantity"`
	IsPack   bool    `json:"is_pack"`
	FormatID *int64  `json:"format_id,omitempty"`
}

type saleRequest struct {
	Items       []saleLine `json:"items"`
	Description string     `json:"description,omitempty"`
}

// SaleResult is the service's confirmation of a registered sale.
type SaleResult struct {
	SaleID int64   `json:"sale_id"`
	Total  float64 `json:"total"`
}

// SubmitSale registers the cart contents as one sale. Missing (stale) lines
// must be cleared by the caller first.
func (c *Client) SubmitSale(ctx context.Context, lines []cart.Line, description string) (SaleResult, error) {
	req := saleRequest{
		Items:       make([]saleLine, 0, len(lines)),
		Description: description,
	}
	for _, l := range lines {
		wl := saleLine{
			ItemID:   l.Key.ItemID,
			Quantity: l.Quantity.Float64(),
			IsPack:   l.Key.Selector.IsPack(),
		}
		if l.Key.Selector.Kind == catalog.KindExtraPack {
			fid := l.Key.Selector.FormatID
			wl.FormatID = &fid
		}
		req.Items = append(req.Items, wl)
	}

	var res SaleResult
	if err := c.do(ctx, http.MethodPost, "/sales/", req, &res); err != nil {
		return SaleResult{}, err
	}
	return res, nil
}

// QuickSell registers a single-line sale without going through a cart.
func (c *Client) QuickSell(ctx context.Context, itemID int64, quantity float64, isPack bool) (SaleResult, error) {
	body := saleLine{ItemID: itemID, Quantity: quantity, IsPack: isPack}
	var res SaleResult
	if err := c.do(ctx, http.MethodPost, "/sales/quick", body, &res); err != nil {
		return SaleResult{}, err
	}
	return res, nil
}

type replenishLine struct {
	ItemID   int64  `json:"item_id,omitempty"`
	Quantity string `json:"quantity"`
	IsPack   bool   `json:"is_pack"`
	Cost     string `json:"cost"`

	// New-item attributes, set only on creation lines.
	Name          string  `json:"name,omitempty"`
	Brand         string  `json:"brand,omitempty"`
	Barcode       string  `json:"barcode,omitempty"`
	SellingPrice  string  `json:"selling_price,omitempty"`
	PackSize      int64   `json:"pack_size,omitempty"`
	PackPrice     string  `json:"pack_price,omitempty"`
	CategoryID    *int64  `json:"category_id,omitempty"`
	MinStockAlert float64 `json:"min_stock_alert,omitempty"`
}

type replenishRequest struct {
	Items []replenishLine `json:"items"`
}

// Replenish sends a validated purchase batch. Lines carry the raw purchase
// total; the service derives the weighted unit cost from its own ledger.
func (c *Client) Replenish(ctx context.Context, lines []replenish.CommitLine) error {
	req := replenishRequest{Items: make([]replenishLine, 0, len(lines))}
	for _, l := range lines {
		wl := replenishLine{
			ItemID:   l.ItemID,
			Quantity: l.Quantity.String(),
			IsPack:   l.IsPack,
			Cost:     l.TotalCost.String(),
		}
		if n := l.NewItem; n != nil {
			wl.Name = n.Name
			wl.Brand = n.Brand
			wl.Barcode = n.Barcode
			wl.SellingPrice = n.SellingPrice.String()
			wl.CategoryID = n.CategoryID
			wl.MinStockAlert = n.MinStockAlert
			if n.IsPack {
				wl.PackSize = n.PackSize
				if n.PackPrice.IsPositive() {
					wl.PackPrice = n.PackPrice.String()
				}
			}
		}
		req.Items = append(req.Items, wl)
	}
	return c.do(ctx, http.MethodPost, "/stock/batch-replenish", req, nil)
}

type bulkPriceRequest struct {
	TargetField string `json:"target_field"`
	Percentage  string `json:"percentage"`
	Brand       string `json:"brand,omitempty"`
	CategoryID  *int64 `json:"category_id,omitempty"`
}

// BulkPriceUpdate applies a validated percentage mutation remotely.
func (c *Client) BulkPriceUpdate(ctx context.Context, req bulkprice.Request) error {
	body := bulkPriceRequest{
		TargetField: string(req.TargetField),
		Percentage:  req.Percentage.String(),
	}
	switch req.Scope {
	case bulkprice.ScopeBrand:
		body.Brand = req.Brand
	case bulkprice.ScopeCategory:
		body.CategoryID = req.CategoryID
	}
	return c.do(ctx, http.MethodPost, "/stock/bulk-price-update", body, nil)
}

// UpdateItem pushes edited item fields and returns the stored record.
func (c *Client) UpdateItem(ctx context.Context, item catalog.Item) (catalog.Item, error) {
	var out catalog.Item
	path := fmt.Sprintf("/stock/%d", item.ID)
	if err := c.do(ctx, http.MethodPut, path, item, &out); err != nil {
		return catalog.Item{}, err
	}
	return out, nil
}

// DeleteItem removes an item from the remote catalog.
func (c *Client) DeleteItem(ctx context.Context, itemID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/stock/%d", itemID), nil, nil)
}

// do performs one JSON round trip. Non-2xx responses surface the service's
// detail message as a RemoteRequest error.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	ctx, span := c.tracer.Start(ctx, "remote."+method+" "+path,
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.path", path),
		))
	defer span.End()

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return apperror.NewInternal(err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apperror.NewInternal(err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn(ctx, "remote request failed", "method", method, "path", path, "error", err)
		return apperror.NewRemoteRequest("remote service unreachable").WithCause(err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.rejection(resp)
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperror.NewRemoteRequest("malformed remote response").WithCause(err)
	}
	return nil
}

// rejection maps the service's {"detail": "..."} error body.
func (c *Client) rejection(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Detail string `json:"detail"`
	}
	detail := http.StatusText(resp.StatusCode)
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Detail != "" {
		detail = payload.Detail
	}

	appErr := apperror.NewRemoteRequest(detail)
	appErr.WithDetail("status", resp.StatusCode)
	return appErr
}
