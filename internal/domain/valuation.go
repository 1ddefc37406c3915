package domain

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// RoundingMode selects how a NumericContext rounds
type RoundingMode int

const (
	// RoundHalfUp rounds ties away from zero (decimal.Decimal.Round)
	RoundHalfUp RoundingMode = iota
	// RoundHalfEven rounds ties to the even neighbour (banker's rounding)
	RoundHalfEven
)

// ParseRoundingMode accepts "half_up" and "half_even"
func ParseRoundingMode(s string) (RoundingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "half_up", "":
		return RoundHalfUp, nil
	case "half_even", "bankers":
		return RoundHalfEven, nil
	default:
		return 0, fmt.Errorf("unknown rounding mode %q", s)
	}
}

func (m RoundingMode) String() string {
	if m == RoundHalfEven {
		return "half_even"
	}
	return "half_up"
}

// MoneyPlaces is the number of decimal places of every monetary result
const MoneyPlaces = 2

// powGuardDigits are carried on top of the precision while exponentiating
const powGuardDigits = 10

// NumericContext holds the precision used for intermediate results
// It is passed by value into every computation so no package-level decimal state is touched
type NumericContext struct {
	Precision int32 // significant digits kept by intermediate results
	Rounding  RoundingMode
}

// DefaultNumericContext keeps 19 significant digits, enough for NUMERIC(19,2) values
var DefaultNumericContext = NumericContext{Precision: 19, Rounding: RoundHalfUp}

// roundPlaces rounds d to the given number of decimal places using the context's mode
func (nc NumericContext) roundPlaces(d decimal.Decimal, places int32) decimal.Decimal {
	if nc.Rounding == RoundHalfEven {
		return d.RoundBank(places)
	}
	return d.Round(places)
}

// roundSignificant rounds d to the given number of significant digits
func (nc NumericContext) roundSignificant(d decimal.Decimal, digits int32) decimal.Decimal {
	if d.IsZero() || digits <= 0 {
		return d
	}
	n := coefficientDigits(d)
	if n <= digits {
		return d
	}
	return nc.roundPlaces(d, digits-(n+d.Exponent()))
}

func coefficientDigits(d decimal.Decimal) int32 {
	return int32(len(new(big.Int).Abs(d.Coefficient()).String()))
}

// Round rounds d to the context's precision
func (nc NumericContext) Round(d decimal.Decimal) decimal.Decimal {
	return nc.roundSignificant(d, nc.Precision)
}

// Quo divides a by b and rounds the quotient to the context's precision
func (nc NumericContext) Quo(a, b decimal.Decimal) decimal.Decimal {
	// Enough places for Precision significant digits of any quotient not smaller than 10^-Precision
	q := a.DivRound(b, 2*nc.Precision)
	return nc.Round(q)
}

// PowInt raises base to a non-negative integer power by squaring
// Intermediate products keep Precision plus guard digits and the result is rounded once
func (nc NumericContext) PowInt(base decimal.Decimal, n int) decimal.Decimal {
	result := decimal.NewFromInt(1)
	if n <= 0 {
		return result
	}

	work := nc.Precision + powGuardDigits
	for n > 0 {
		if n&1 == 1 {
			result = nc.roundSignificant(result.Mul(base), work)
		}
		n >>= 1
		if n > 0 {
			base = nc.roundSignificant(base.Mul(base), work)
		}
	}

	return nc.Round(result)
}

// ComputeFutureValue returns value * (1 + rate/100)^periods rounded to cents
// Rounding to cents happens once, on the final product
func (nc NumericContext) ComputeFutureValue(value, interestRate decimal.Decimal, periods int) decimal.Decimal {
	growth := decimal.NewFromInt(1).Add(interestRate.Shift(-2))
	factor := nc.PowInt(growth, periods)
	return nc.roundPlaces(nc.Round(value.Mul(factor)), MoneyPlaces)
}

// ComputePeriods returns the number of full payment intervals between two dates
// The months delta is calendar aware: Jan 31 to Mar 1 is one month
func ComputePeriods(purchase, maturity civil.Date, frequency PaymentFrequency) int {
	if frequency.Months() <= 0 {
		return 0
	}
	return MonthsBetween(purchase, maturity) / frequency.Months()
}

// MonthsBetween returns the whole calendar months from start to end, ignoring residual days
// A month is counted once start plus that many months (clipped to month end) does not pass end
// Returns 0 when end is before start
func MonthsBetween(start, end civil.Date) int {
	if end.Before(start) {
		return 0
	}

	months := (end.Year-start.Year)*12 + int(end.Month-start.Month)
	for months > 0 && end.Before(AddMonths(start, months)) {
		months--
	}

	return months
}

// AddMonths moves d forward by n months, clipping the day to the length of the target month
func AddMonths(d civil.Date, n int) civil.Date {
	total := int(d.Month) - 1 + n
	year := d.Year + total/12
	month := total % 12
	if month < 0 {
		month += 12
		year--
	}

	m := time.Month(month + 1)
	day := d.Day
	if last := daysIn(year, m); day > last {
		day = last
	}

	return civil.Date{Year: year, Month: m, Day: day}
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
