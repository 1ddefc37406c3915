package domain

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentFrequency is the number of months between two interest payments
type PaymentFrequency int

const (
	PaymentFrequencyMonthly  PaymentFrequency = 1
	PaymentFrequencyAnnually PaymentFrequency = 12
)

// DefaultPaymentFrequency is used when a bond is recorded without a frequency
const DefaultPaymentFrequency = PaymentFrequencyAnnually

// ParsePaymentFrequency maps a month count onto a known frequency
// Unknown month counts are rejected instead of being used as a divisor
func ParsePaymentFrequency(months int) (PaymentFrequency, error) {
	f := PaymentFrequency(months)
	if !f.Valid() {
		return 0, fmt.Errorf("invalid payment frequency %d: must be 1 (monthly) or 12 (annually)", months)
	}
	return f, nil
}

// ParsePaymentFrequencyName accepts the labels "monthly" and "annually"
func ParsePaymentFrequencyName(name string) (PaymentFrequency, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "monthly":
		return PaymentFrequencyMonthly, nil
	case "annually":
		return PaymentFrequencyAnnually, nil
	default:
		return 0, fmt.Errorf("invalid payment frequency %q: must be monthly or annually", name)
	}
}

// Valid reports whether f is one of the known frequencies
func (f PaymentFrequency) Valid() bool {
	return f == PaymentFrequencyMonthly || f == PaymentFrequencyAnnually
}

// Months returns the number of months in one payment interval
func (f PaymentFrequency) Months() int {
	return int(f)
}

func (f PaymentFrequency) String() string {
	switch f {
	case PaymentFrequencyMonthly:
		return "monthly"
	case PaymentFrequencyAnnually:
		return "annually"
	default:
		return fmt.Sprintf("PaymentFrequency(%d)", int(f))
	}
}

// Bond represents a bond record held by a single owner
// The valuation fields (Periods, FutureValue) are derived on every call and never stored
type Bond struct {
	ID               uuid.UUID
	OwnerID          uuid.UUID
	Name             string
	ISIN             string
	Value            decimal.Decimal // Present value
	InterestRate     decimal.Decimal // Annual rate in percent (5 = 5%)
	PurchaseDate     civil.Date
	MaturityDate     civil.Date
	PaymentFrequency PaymentFrequency
	CreatedAt        time.Time
}

// Validate checks the invariants the valuation relies on
// Returns *InvalidBondStateError when one of them is broken
func (b *Bond) Validate() error {
	if !b.Value.IsPositive() {
		return &InvalidBondStateError{BondID: b.ID, Reason: "value must be higher than 0"}
	}

	if !b.InterestRate.IsPositive() {
		return &InvalidBondStateError{BondID: b.ID, Reason: "interest rate must be higher than 0"}
	}

	if !b.PurchaseDate.IsValid() || !b.MaturityDate.IsValid() {
		return &InvalidBondStateError{BondID: b.ID, Reason: "purchase and maturity dates must be valid calendar dates"}
	}

	if b.MaturityDate.Before(b.PurchaseDate) {
		return &InvalidBondStateError{BondID: b.ID, Reason: "maturity date must be after purchase date"}
	}

	if !b.PaymentFrequency.Valid() {
		return &InvalidBondStateError{BondID: b.ID, Reason: fmt.Sprintf("unknown payment frequency %d", int(b.PaymentFrequency))}
	}

	return nil
}

// Periods returns the number of full payment intervals between purchase and maturity
func (b Bond) Periods() int {
	return ComputePeriods(b.PurchaseDate, b.MaturityDate, b.PaymentFrequency)
}

// FutureValue returns the value compounded over Periods, rounded to cents
func (b Bond) FutureValue(nc NumericContext) decimal.Decimal {
	return nc.ComputeFutureValue(b.Value, b.InterestRate, b.Periods())
}
