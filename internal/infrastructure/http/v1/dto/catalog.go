package dto

import "abasto/internal/catalog"

// ScanRequest resolves a scanned barcode.
type ScanRequest struct {
	Code string `json:"code" binding:"required"`
}

// CatalogResponse is the full catalog view.
type CatalogResponse struct {
	Items          []*catalog.Item    `json:"items"`
	Categories     []catalog.Category `json:"categories"`
	Brands         []string           `json:"brands"`
	FetchedAt      string             `json:"fetched_at,omitempty"`
	InventoryValue string             `json:"inventory_value"`
}
