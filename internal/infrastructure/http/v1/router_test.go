package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abasto/internal/core/apperror"
	"abasto/internal/core/types"
	"abasto/pkg/logger"

	"abasto/internal/bulkprice"
	"abasto/internal/cart"
	"abasto/internal/catalog"
	"abasto/internal/remote"
	"abasto/internal/replenish"
	"abasto/internal/session"
	"abasto/internal/terminal"
)

func strPtr(s string) *string { return &s }

type fakeRemote struct {
	items []catalog.Item
	sales int
}

func (f *fakeRemote) FetchCatalog(context.Context) ([]catalog.Item, error) {
	return f.items, nil
}

func (f *fakeRemote) FetchCategories(context.Context, string) ([]catalog.Category, error) {
	return nil, nil
}

func (f *fakeRemote) SubmitSale(_ context.Context, lines []cart.Line, _ string) (remote.SaleResult, error) {
	f.sales++
	return remote.SaleResult{SaleID: int64(f.sales), Total: 430}, nil
}

func (f *fakeRemote) QuickSell(context.Context, int64, float64, bool) (remote.SaleResult, error) {
	return remote.SaleResult{SaleID: 500}, nil
}

func (f *fakeRemote) Replenish(context.Context, []replenish.CommitLine) error { return nil }

func (f *fakeRemote) BulkPriceUpdate(context.Context, bulkprice.Request) error { return nil }

func (f *fakeRemote) UpdateItem(_ context.Context, item catalog.Item) (catalog.Item, error) {
	return item, nil
}

func (f *fakeRemote) DeleteItem(context.Context, int64) error { return nil }

func testRouter(t *testing.T) (*fakeRemote, http.Handler) {
	t.Helper()

	f := &fakeRemote{items: []catalog.Item{
		{ID: 1, Name: "Cola", Brand: "Manaos", Barcode: strPtr("779123456789"),
			Quantity:     types.NewQuantityFromInt64(12),
			SellingPrice: decimal.NewFromInt(50),
			IsPack:       true, PackSize: 6},
	}}

	store := catalog.NewStore()
	store.Replace(catalog.NewSnapshot(f.items, nil, time.Now()))
	svc := terminal.New(store, session.NewManager(store), f, nil, nil)

	log, err := logger.New(logger.Config{Level: "error"})
	require.NoError(t, err)

	return f, NewRouter(svc, log, false)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, h http.Handler) string {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.SessionID
}

func TestCartFlow(t *testing.T) {
	f, h := testRouter(t)
	sid := createSession(t, h)

	// Add one unit.
	w := doJSON(t, h, http.MethodPost, "/api/v1/sessions/"+sid+"/cart/lines",
		map[string]any{"item_id": 1, "is_pack": false})
	require.Equal(t, http.StatusOK, w.Code)

	// Set the pack line to one six-pack.
	w = doJSON(t, h, http.MethodPut, "/api/v1/sessions/"+sid+"/cart/lines",
		map[string]any{"item_id": 1, "is_pack": true, "quantity": 1})
	require.Equal(t, http.StatusOK, w.Code)

	var cartResp struct {
		Lines []struct {
			ItemID int64   `json:"item_id"`
			IsPack bool    `json:"is_pack"`
			Total  string  `json:"total"`
		} `json:"lines"`
		Total string `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cartResp))
	require.Len(t, cartResp.Lines, 2)
	// No pack price set, so the pack falls back to 6 * 50.
	assert.Equal(t, "350", cartResp.Total)

	// Checkout succeeds and bumps the fake sale counter.
	w = doJSON(t, h, http.MethodPost, "/api/v1/sessions/"+sid+"/checkout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.sales)

	// Cart is empty afterwards; a second checkout is a validation error.
	w = doJSON(t, h, http.MethodPost, "/api/v1/sessions/"+sid+"/checkout", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartCeilingRejection(t *testing.T) {
	_, h := testRouter(t)
	sid := createSession(t, h)

	// 13 units of a 12-unit stock.
	w := doJSON(t, h, http.MethodPut, "/api/v1/sessions/"+sid+"/cart/lines",
		map[string]any{"item_id": 1, "is_pack": false, "quantity": 13})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, apperror.CodeInsufficientStock, errResp.Code)
	assert.Contains(t, errResp.Message, "Manaos Cola")
}

func TestDraftFlow(t *testing.T) {
	_, h := testRouter(t)
	sid := createSession(t, h)

	// An incomplete line is rejected at add time and names the field.
	w := doJSON(t, h, http.MethodPost, "/api/v1/sessions/"+sid+"/draft/lines",
		map[string]any{"item_id": 1, "is_pack": false, "quantity": "", "cost": "100"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var errResp struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, apperror.CodeIncompleteDraft, errResp.Code)
	assert.Equal(t, "quantity", errResp.Details["field"])

	// Committing the still-empty draft is a validation error.
	w = doJSON(t, h, http.MethodPost, "/api/v1/sessions/"+sid+"/draft/commit", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, apperror.CodeValidation, errResp.Code)

	// A valid pack line lands with its cost preview.
	w = doJSON(t, h, http.MethodPost, "/api/v1/sessions/"+sid+"/draft/lines",
		map[string]any{"item_id": 1, "is_pack": true, "quantity": "2", "cost": "1200"})
	require.Equal(t, http.StatusCreated, w.Code)

	var draftResp struct {
		Lines []struct {
			ItemID   int64  `json:"item_id"`
			UnitCost string `json:"unit_cost"`
			PackCost string `json:"pack_cost"`
		} `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &draftResp))
	require.Len(t, draftResp.Lines, 1)
	assert.Equal(t, "100", draftResp.Lines[0].UnitCost)
	assert.Equal(t, "600", draftResp.Lines[0].PackCost)

	w = doJSON(t, h, http.MethodPost, "/api/v1/sessions/"+sid+"/draft/commit", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Success clears the draft.
	w = doJSON(t, h, http.MethodGet, "/api/v1/sessions/"+sid+"/draft", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &draftResp))
	assert.Empty(t, draftResp.Lines)
}

func TestDraftNewItemLine(t *testing.T) {
	_, h := testRouter(t)
	sid := createSession(t, h)

	w := doJSON(t, h, http.MethodPost, "/api/v1/sessions/"+sid+"/draft/lines",
		map[string]any{
			"new_item": map[string]any{
				"name": "Agua", "brand": "Villa",
				"selling_price": "400", "pack_size": "12",
			},
			"is_pack": true, "quantity": "3", "cost": "9000",
		})
	require.Equal(t, http.StatusCreated, w.Code)

	var draftResp struct {
		Lines []struct {
			NewItem  string `json:"new_item"`
			UnitCost string `json:"unit_cost"`
		} `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &draftResp))
	require.Len(t, draftResp.Lines, 1)
	assert.Equal(t, "Agua", draftResp.Lines[0].NewItem)
	assert.Equal(t, "250", draftResp.Lines[0].UnitCost)
}

func TestBulkPriceValidation(t *testing.T) {
	_, h := testRouter(t)

	w := doJSON(t, h, http.MethodPost, "/api/v1/bulk-price",
		map[string]any{"scope": "brand", "target_field": "price", "percentage": "10"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var errResp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, apperror.CodeMissingScope, errResp.Code)

	w = doJSON(t, h, http.MethodPost, "/api/v1/bulk-price/preview",
		map[string]any{"scope": "brand", "brand": "Manaos", "target_field": "price", "percentage": "10"})
	require.Equal(t, http.StatusOK, w.Code)

	var prevResp struct {
		Affected    int    `json:"affected"`
		SamplePrice string `json:"sample_price"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prevResp))
	assert.Equal(t, 1, prevResp.Affected)
	assert.Equal(t, "55", prevResp.SamplePrice)
}

func TestScanEndpoint(t *testing.T) {
	_, h := testRouter(t)

	w := doJSON(t, h, http.MethodPost, "/api/v1/scan",
		map[string]any{"code": "779123456789"})
	require.Equal(t, http.StatusOK, w.Code)

	var item struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, int64(1), item.ID)

	w = doJSON(t, h, http.MethodPost, "/api/v1/scan",
		map[string]any{"code": "404404404404"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionNotFound(t *testing.T) {
	_, h := testRouter(t)

	w := doJSON(t, h, http.MethodGet,
		"/api/v1/sessions/01890000-0000-7000-8000-000000000000/cart", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/v1/sessions/not-a-uuid/cart", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	_, h := testRouter(t)

	w := doJSON(t, h, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
