package rest

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/janskylukas/bond-service/internal/domain"
	"github.com/janskylukas/bond-service/internal/usecase/bond"
)

const (
	msgRequired      = "This field is required."
	msgNull          = "This field may not be null."
	msgInvalidNumber = "A valid number is required."
	msgInvalidDate   = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
)

// bondRequest is the body of POST, PUT and PATCH /api/bonds
// Numbers are kept raw so a malformed field is reported against that field
type bondRequest struct {
	Name             *string         `json:"name"`
	ISIN             *string         `json:"isin"`
	Value            json.RawMessage `json:"value"`
	InterestRate     json.RawMessage `json:"interest_rate"`
	PurchaseDate     *string         `json:"purchase_date"`
	MaturityDate     *string         `json:"maturity_date"`
	PaymentFrequency json.RawMessage `json:"payment_frequency"`
}

// toInput converts a full request; every field but payment_frequency is required
func (r *bondRequest) toInput() (bond.BondInput, error) {
	verr := domain.NewValidationError()
	var input bond.BondInput

	if r.Name == nil {
		verr.Add("name", msgRequired)
	} else {
		input.Name = *r.Name
	}

	if r.ISIN == nil {
		verr.Add("isin", msgRequired)
	} else {
		input.ISIN = *r.ISIN
	}

	if d, msg := parseDecimal(r.Value); msg != "" {
		verr.Add("value", msg)
	} else {
		input.Value = d
	}

	if d, msg := parseDecimal(r.InterestRate); msg != "" {
		verr.Add("interest_rate", msg)
	} else {
		input.InterestRate = d
	}

	if d, msg := parseDate(r.PurchaseDate); msg != "" {
		verr.Add("purchase_date", msg)
	} else {
		input.PurchaseDate = d
	}

	if d, msg := parseDate(r.MaturityDate); msg != "" {
		verr.Add("maturity_date", msg)
	} else {
		input.MaturityDate = d
	}

	if len(r.PaymentFrequency) > 0 {
		if f, msg := parseFrequency(r.PaymentFrequency); msg != "" {
			verr.Add("payment_frequency", msg)
		} else {
			input.PaymentFrequency = &f
		}
	}

	return input, verr.OrNil()
}

// toPatch converts a partial request; absent fields stay nil
func (r *bondRequest) toPatch() (bond.BondPatch, error) {
	verr := domain.NewValidationError()
	patch := bond.BondPatch{
		Name: r.Name,
		ISIN: r.ISIN,
	}

	if len(r.Value) > 0 {
		if d, msg := parseDecimal(r.Value); msg != "" {
			verr.Add("value", msg)
		} else {
			patch.Value = &d
		}
	}

	if len(r.InterestRate) > 0 {
		if d, msg := parseDecimal(r.InterestRate); msg != "" {
			verr.Add("interest_rate", msg)
		} else {
			patch.InterestRate = &d
		}
	}

	if r.PurchaseDate != nil {
		if d, msg := parseDate(r.PurchaseDate); msg != "" {
			verr.Add("purchase_date", msg)
		} else {
			patch.PurchaseDate = &d
		}
	}

	if r.MaturityDate != nil {
		if d, msg := parseDate(r.MaturityDate); msg != "" {
			verr.Add("maturity_date", msg)
		} else {
			patch.MaturityDate = &d
		}
	}

	if len(r.PaymentFrequency) > 0 {
		if f, msg := parseFrequency(r.PaymentFrequency); msg != "" {
			verr.Add("payment_frequency", msg)
		} else {
			patch.PaymentFrequency = &f
		}
	}

	return patch, verr.OrNil()
}

// parseDecimal accepts a JSON number or a numeric string
func parseDecimal(raw json.RawMessage) (decimal.Decimal, string) {
	if len(raw) == 0 {
		return decimal.Zero, msgRequired
	}
	if bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, msgNull
	}

	var d decimal.Decimal
	if err := json.Unmarshal(raw, &d); err != nil {
		return decimal.Zero, msgInvalidNumber
	}
	return d, ""
}

func parseDate(s *string) (civil.Date, string) {
	if s == nil {
		return civil.Date{}, msgRequired
	}

	d, err := civil.ParseDate(strings.TrimSpace(*s))
	if err != nil {
		return civil.Date{}, msgInvalidDate
	}
	return d, ""
}

// parseFrequency accepts the month count (1, 12, "12") or the label ("monthly", "annually")
// Unknown month counts, 0 included, pass through so validation reports them as invalid choices
func parseFrequency(raw json.RawMessage) (domain.PaymentFrequency, string) {
	if bytes.Equal(raw, []byte("null")) {
		return 0, msgNull
	}

	var months int
	if err := json.Unmarshal(raw, &months); err == nil {
		return domain.PaymentFrequency(months), ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, "A valid integer is required."
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return domain.PaymentFrequency(n), ""
	}
	f, err := domain.ParsePaymentFrequencyName(s)
	if err != nil {
		return 0, "\"" + s + "\" is not a valid choice."
	}
	return f, ""
}

// bondResponse is the JSON representation of a bond
type bondResponse struct {
	ID               uuid.UUID  `json:"id"`
	Owner            uuid.UUID  `json:"owner"`
	Name             string     `json:"name"`
	ISIN             string     `json:"isin"`
	Value            string     `json:"value"`
	InterestRate     string     `json:"interest_rate"`
	PurchaseDate     civil.Date `json:"purchase_date"`
	MaturityDate     civil.Date `json:"maturity_date"`
	PaymentFrequency int        `json:"payment_frequency"`
	Periods          int        `json:"periods"`
	FutureValue      string     `json:"future_value"`
}

func newBondResponse(b *domain.Bond, nc domain.NumericContext) bondResponse {
	return bondResponse{
		ID:               b.ID,
		Owner:            b.OwnerID,
		Name:             b.Name,
		ISIN:             b.ISIN,
		Value:            b.Value.StringFixed(domain.MoneyPlaces),
		InterestRate:     b.InterestRate.StringFixed(2),
		PurchaseDate:     b.PurchaseDate,
		MaturityDate:     b.MaturityDate,
		PaymentFrequency: int(b.PaymentFrequency),
		Periods:          b.Periods(),
		FutureValue:      b.FutureValue(nc).StringFixed(domain.MoneyPlaces),
	}
}

// portfolioResponse is the body of GET /api/bonds/portfolio-analysis
type portfolioResponse struct {
	TotalValue          string       `json:"total_value"`
	AverageInterestRate string       `json:"average_interest_rate"`
	NearestMaturityBond bondResponse `json:"nearest_maturity_bond"`
	FutureValue         string       `json:"future_value"`
}

func newPortfolioResponse(s *domain.PortfolioSummary, nc domain.NumericContext) portfolioResponse {
	return portfolioResponse{
		TotalValue:          s.TotalValue.StringFixed(domain.MoneyPlaces),
		AverageInterestRate: s.AverageInterestRate.String(),
		NearestMaturityBond: newBondResponse(&s.NearestMaturityBond, nc),
		FutureValue:         s.FutureValue.StringFixed(domain.MoneyPlaces),
	}
}
