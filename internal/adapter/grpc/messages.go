package grpc

// Bond is the wire form of a bond
// Money and rates travel as decimal strings, dates as YYYY-MM-DD
type Bond struct {
	ID               string `json:"id"`
	OwnerID          string `json:"owner_id"`
	Name             string `json:"name"`
	ISIN             string `json:"isin"`
	Value            string `json:"value"`
	InterestRate     string `json:"interest_rate"`
	PurchaseDate     string `json:"purchase_date"`
	MaturityDate     string `json:"maturity_date"`
	PaymentFrequency string `json:"payment_frequency"`
	Periods          int    `json:"periods"`
	FutureValue      string `json:"future_value"`
}

// BondFields are the user-supplied fields of a bond
type BondFields struct {
	Name             string `json:"name"`
	ISIN             string `json:"isin"`
	Value            string `json:"value"`
	InterestRate     string `json:"interest_rate"`
	PurchaseDate     string `json:"purchase_date"`
	MaturityDate     string `json:"maturity_date"`
	PaymentFrequency string `json:"payment_frequency"` // "monthly", "annually", or the month count
}

type CreateBondRequest struct {
	Bond BondFields `json:"bond"`
}

type GetBondRequest struct {
	ID string `json:"id"`
}

type ListBondsRequest struct{}

type ListBondsResponse struct {
	Bonds []*Bond `json:"bonds"`
}

// UpdateBondRequest replaces the bond's fields
// With a non-empty UpdateMask only the named fields change
type UpdateBondRequest struct {
	ID         string     `json:"id"`
	Bond       BondFields `json:"bond"`
	UpdateMask []string   `json:"update_mask,omitempty"`
}

type DeleteBondRequest struct {
	ID string `json:"id"`
}

type DeleteBondResponse struct{}

type AnalyzePortfolioRequest struct{}

type PortfolioSummary struct {
	TotalValue          string `json:"total_value"`
	AverageInterestRate string `json:"average_interest_rate"`
	NearestMaturityBond *Bond  `json:"nearest_maturity_bond"`
	FutureValue         string `json:"future_value"`
	BondCount           int    `json:"bond_count"`
}
