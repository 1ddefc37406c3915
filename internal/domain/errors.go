package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrBondNotFound is returned when a bond does not exist or belongs to another owner
	ErrBondNotFound = errors.New("bond not found")

	// ErrEmptyPortfolio is returned when there is nothing to aggregate
	ErrEmptyPortfolio = errors.New("no bonds in portfolio")

	// ErrInvalidISIN is wrapped by every ISIN rejection
	ErrInvalidISIN = errors.New("invalid ISIN")
)

// InvalidBondStateError reports a bond that breaks a valuation precondition
type InvalidBondStateError struct {
	BondID uuid.UUID
	Reason string
}

func (e *InvalidBondStateError) Error() string {
	if e.BondID == uuid.Nil {
		return "invalid bond state: " + e.Reason
	}
	return fmt.Sprintf("invalid bond state for %s: %s", e.BondID, e.Reason)
}

// ValidationError collects per-field input problems
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns an empty ValidationError ready for Add
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a problem for field, keeping the first message per field
func (e *ValidationError) Add(field, message string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// HasErrors reports whether any field was rejected
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil returns e when it holds errors and nil otherwise
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e.Fields[field])
	}
	return "invalid bond: " + strings.Join(parts, "; ")
}
