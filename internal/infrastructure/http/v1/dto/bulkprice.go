package dto

import "abasto/internal/bulkprice"

// BulkPriceRequest is a percentage price mutation over a catalog scope.
type BulkPriceRequest struct {
	Scope       string `json:"scope"`
	TargetField string `json:"target_field"`
	Percentage  string `json:"percentage"`
	Brand       string `json:"brand,omitempty"`
	CategoryID  *int64 `json:"category_id,omitempty"`
}

// Mutation converts the wire request to a bulkprice mutation.
func (r BulkPriceRequest) Mutation() bulkprice.Mutation {
	return bulkprice.Mutation{
		Scope:       bulkprice.Scope(r.Scope),
		TargetField: bulkprice.TargetField(r.TargetField),
		Percentage:  r.Percentage,
		Brand:       r.Brand,
		CategoryID:  r.CategoryID,
	}
}

// BulkPriceResponse reports what a mutation touched.
type BulkPriceResponse struct {
	Affected    int    `json:"affected"`
	SamplePrice string `json:"sample_price,omitempty"`
}
