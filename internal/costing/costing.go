// Package costing derives per-unit and per-pack costs from replenishment
// purchase figures.
//
// A purchase is entered as a total cost for a number of selections of some
// format; the stock ledger tracks cost per base unit, so the total has to be
// spread over quantity times units-per-selection.
package costing

import "github.com/shopspring/decimal"

// Costs is the derived cost breakdown of one purchase line.
type Costs struct {
	// UnitCost is the cost of one base unit.
	UnitCost decimal.Decimal
	// PackCost is the cost of one selection (UnitCost times units per
	// selection). Equals UnitCost for unit purchases.
	PackCost decimal.Decimal
}

// Derive spreads totalCost over quantity selections of unitsPerSelection
// base units each.
//
// Incomplete input yields zero costs rather than an error: the live entry
// form recomputes on every keystroke and a half-typed line is expected, not
// exceptional. Callers that need hard validation check the raw fields before
// calling (see the replenish draft commit path).
func Derive(totalCost, quantity decimal.Decimal, unitsPerSelection int64) Costs {
	if unitsPerSelection <= 0 {
		unitsPerSelection = 1
	}
	if !totalCost.IsPositive() || !quantity.IsPositive() {
		return Costs{UnitCost: decimal.Zero, PackCost: decimal.Zero}
	}

	per := decimal.NewFromInt(unitsPerSelection)
	baseUnits := quantity.Mul(per)
	unit := totalCost.DivRound(baseUnits, 4)
	return Costs{
		UnitCost: unit,
		PackCost: unit.Mul(per),
	}
}

// DeriveFromStrings parses the raw form fields and derives costs.
// Unparseable fields coerce to zero, matching the live-entry behavior.
func DeriveFromStrings(totalCost, quantity string, unitsPerSelection int64) Costs {
	tc, err := decimal.NewFromString(totalCost)
	if err != nil {
		tc = decimal.Zero
	}
	q, err := decimal.NewFromString(quantity)
	if err != nil {
		q = decimal.Zero
	}
	return Derive(tc, q, unitsPerSelection)
}
