// Package bulkprice implements percentage price mutations over a catalog
// scope: every item, one brand, or one category. Validation runs locally;
// the remote service applies the mutation.
package bulkprice

import (
	"context"

	"github.com/shopspring/decimal"

	"abasto/internal/core/apperror"

	"abasto/internal/catalog"
)

// Scope selects which items a mutation touches.
type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeBrand    Scope = "brand"
	ScopeCategory Scope = "category"
)

// TargetField selects which price figures the percentage applies to.
type TargetField string

const (
	TargetPrice TargetField = "price"
	TargetCost  TargetField = "cost"
	TargetBoth  TargetField = "both"
)

// Mutation is the raw operator input. Percentage stays a string until
// validation; a positive value raises, a negative one discounts.
type Mutation struct {
	Scope       Scope
	TargetField TargetField
	Percentage  string

	// Scope filters; exactly the one matching Scope must be set.
	Brand      string
	CategoryID *int64
}

// Request is a validated mutation ready for the remote service.
type Request struct {
	Scope       Scope
	TargetField TargetField
	Percentage  decimal.Decimal
	Brand       string
	CategoryID  *int64
}

// Submitter sends a validated mutation to the remote service.
type Submitter interface {
	BulkPriceUpdate(ctx context.Context, req Request) error
}

// Validate checks the mutation and returns the parsed request.
func (m Mutation) Validate() (Request, error) {
	switch m.TargetField {
	case TargetPrice, TargetCost, TargetBoth:
	default:
		return Request{}, apperror.NewValidation("target field must be price, cost or both")
	}

	switch m.Scope {
	case ScopeAll:
	case ScopeBrand:
		if m.Brand == "" {
			return Request{}, apperror.NewMissingScopeFilter(string(ScopeBrand))
		}
	case ScopeCategory:
		if m.CategoryID == nil {
			return Request{}, apperror.NewMissingScopeFilter(string(ScopeCategory))
		}
	default:
		return Request{}, apperror.NewValidation("scope must be all, brand or category")
	}

	pct, err := decimal.NewFromString(m.Percentage)
	if err != nil {
		return Request{}, apperror.NewInvalidPercentage(m.Percentage)
	}
	// -100% or below would zero out or invert prices.
	if pct.LessThanOrEqual(decimal.NewFromInt(-100)) {
		return Request{}, apperror.NewInvalidPercentage(m.Percentage)
	}

	return Request{
		Scope:       m.Scope,
		TargetField: m.TargetField,
		Percentage:  pct,
		Brand:       m.Brand,
		CategoryID:  m.CategoryID,
	}, nil
}

// Submit validates and sends the mutation.
func (m Mutation) Submit(ctx context.Context, s Submitter) (Request, error) {
	req, err := m.Validate()
	if err != nil {
		return Request{}, err
	}
	if err := s.BulkPriceUpdate(ctx, req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Matches reports whether an item falls inside the request's scope.
func (r Request) Matches(item *catalog.Item) bool {
	switch r.Scope {
	case ScopeBrand:
		return item.Brand == r.Brand
	case ScopeCategory:
		return item.CategoryID != nil && r.CategoryID != nil && *item.CategoryID == *r.CategoryID
	default:
		return true
	}
}

// Preview summarizes what the mutation would do against a snapshot, so the
// operator can sanity-check scope and direction before submitting.
type Preview struct {
	AffectedCount int
	// SamplePrice shows the first matched item's selling price after the
	// mutation; zero when nothing matches or prices are untouched.
	SamplePrice decimal.Decimal
}

// PreviewAgainst computes the preview for a snapshot.
func (r Request) PreviewAgainst(snap *catalog.Snapshot) Preview {
	factor := decimal.NewFromInt(1).Add(r.Percentage.Div(decimal.NewFromInt(100)))
	var p Preview
	for _, item := range snap.Items() {
		if !r.Matches(item) {
			continue
		}
		p.AffectedCount++
		if p.AffectedCount == 1 && r.TargetField != TargetCost {
			p.SamplePrice = item.SellingPrice.Mul(factor).Round(2)
		}
	}
	return p
}
