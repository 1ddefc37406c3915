package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var isinPattern = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)

// NormalizeISIN upper-cases and trims an ISIN as typed by a user
func NormalizeISIN(isin string) string {
	return strings.ToUpper(strings.TrimSpace(isin))
}

// ValidateISIN checks the ISO 6166 layout and check digit
// Letters expand to two digits (A=10 ... Z=35) and the Luhn sum must be a multiple of 10
func ValidateISIN(isin string) error {
	if !isinPattern.MatchString(isin) {
		return fmt.Errorf("%w: %s", ErrInvalidISIN, isin)
	}

	var digits []int
	for _, r := range isin {
		if r >= 'A' && r <= 'Z' {
			v := int(r-'A') + 10
			digits = append(digits, v/10, v%10)
			continue
		}
		digits = append(digits, int(r-'0'))
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}

	if sum%10 != 0 {
		return fmt.Errorf("%w: %s", ErrInvalidISIN, isin)
	}

	return nil
}
