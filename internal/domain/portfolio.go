package domain

import (
	"github.com/shopspring/decimal"
)

// PortfolioSummary is the aggregate view over one owner's bonds
// It is built fresh for every request and never stored
type PortfolioSummary struct {
	TotalValue          decimal.Decimal
	AverageInterestRate decimal.Decimal
	NearestMaturityBond Bond
	FutureValue         decimal.Decimal // Sum of the per-bond future values
	BondCount           int
}

// AnalyzePortfolio folds a non-empty sequence of bonds into a PortfolioSummary
// Logic:
//   - TotalValue: sum of values
//   - AverageInterestRate: simple arithmetic mean of the rates
//   - NearestMaturityBond: earliest maturity date, first occurrence wins on ties
//   - FutureValue: sum of each bond's future value (each already rounded to cents)
//
// Returns ErrEmptyPortfolio when bonds is empty
func AnalyzePortfolio(nc NumericContext, bonds []*Bond) (*PortfolioSummary, error) {
	if len(bonds) == 0 {
		return nil, ErrEmptyPortfolio
	}

	totalValue := decimal.Zero
	rateSum := decimal.Zero
	futureValue := decimal.Zero
	nearest := bonds[0]

	for _, bond := range bonds {
		if bond == nil {
			return nil, &InvalidBondStateError{Reason: "nil bond in portfolio"}
		}

		totalValue = totalValue.Add(bond.Value)
		rateSum = rateSum.Add(bond.InterestRate)
		futureValue = futureValue.Add(bond.FutureValue(nc))

		// Strictly before keeps the first bond among equal maturity dates
		if bond.MaturityDate.Before(nearest.MaturityDate) {
			nearest = bond
		}
	}

	return &PortfolioSummary{
		TotalValue:          totalValue,
		AverageInterestRate: nc.Quo(rateSum, decimal.NewFromInt(int64(len(bonds)))),
		NearestMaturityBond: *nearest,
		FutureValue:         futureValue,
		BondCount:           len(bonds),
	}, nil
}
