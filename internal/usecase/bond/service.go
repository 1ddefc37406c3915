package bond

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/janskylukas/bond-service/internal/domain"
	"github.com/shopspring/decimal"
)

// Column limits of the bonds table
const (
	maxNameLength  = 255
	valueMaxDigits = 19
	valueMaxPlaces = 2
	rateMaxDigits  = 5
	rateMaxPlaces  = 2
)

// BondInput carries the user-supplied fields of a bond
type BondInput struct {
	Name             string
	ISIN             string
	Value            decimal.Decimal
	InterestRate     decimal.Decimal
	PurchaseDate     civil.Date
	MaturityDate     civil.Date
	PaymentFrequency *domain.PaymentFrequency // nil means domain.DefaultPaymentFrequency
}

// BondPatch carries the fields of a partial update; nil fields are left unchanged
type BondPatch struct {
	Name             *string
	ISIN             *string
	Value            *decimal.Decimal
	InterestRate     *decimal.Decimal
	PurchaseDate     *civil.Date
	MaturityDate     *civil.Date
	PaymentFrequency *domain.PaymentFrequency
}

// BondService handles owner-scoped bond operations
type BondService struct {
	BondRepo domain.BondRepository
	Registry domain.ISINRegistry
	Now      func() time.Time
}

// NewBondService creates a new BondService instance
// registry may be nil, in which case only the ISIN check digit is verified
func NewBondService(bondRepo domain.BondRepository, registry domain.ISINRegistry) *BondService {
	return &BondService{
		BondRepo: bondRepo,
		Registry: registry,
		Now:      time.Now,
	}
}

// CreateBond validates the input and stores a new bond for the owner
func (s *BondService) CreateBond(ctx context.Context, ownerID uuid.UUID, input BondInput) (*domain.Bond, error) {
	bond := &domain.Bond{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		CreatedAt: s.Now().UTC(),
	}
	applyInput(bond, input)

	if err := s.validate(ctx, bond, true); err != nil {
		return nil, err
	}

	if err := s.BondRepo.Create(ctx, bond); err != nil {
		return nil, fmt.Errorf("failed to create bond: %w", err)
	}

	return bond, nil
}

// GetBond retrieves one of the owner's bonds
func (s *BondService) GetBond(ctx context.Context, ownerID, bondID uuid.UUID) (*domain.Bond, error) {
	return s.BondRepo.GetByID(ctx, ownerID, bondID)
}

// ListBonds retrieves the owner's bonds ordered by maturity date
func (s *BondService) ListBonds(ctx context.Context, ownerID uuid.UUID) ([]*domain.Bond, error) {
	return s.BondRepo.ListByOwner(ctx, ownerID)
}

// UpdateBond replaces every user-supplied field of an existing bond
func (s *BondService) UpdateBond(ctx context.Context, ownerID, bondID uuid.UUID, input BondInput) (*domain.Bond, error) {
	bond, err := s.BondRepo.GetByID(ctx, ownerID, bondID)
	if err != nil {
		return nil, err
	}

	storedISIN := bond.ISIN
	applyInput(bond, input)

	return s.save(ctx, bond, bond.ISIN != storedISIN)
}

// PatchBond changes only the fields present in the patch
func (s *BondService) PatchBond(ctx context.Context, ownerID, bondID uuid.UUID, patch BondPatch) (*domain.Bond, error) {
	bond, err := s.BondRepo.GetByID(ctx, ownerID, bondID)
	if err != nil {
		return nil, err
	}

	storedISIN := bond.ISIN
	if patch.Name != nil {
		bond.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.ISIN != nil {
		bond.ISIN = domain.NormalizeISIN(*patch.ISIN)
	}
	if patch.Value != nil {
		bond.Value = *patch.Value
	}
	if patch.InterestRate != nil {
		bond.InterestRate = *patch.InterestRate
	}
	if patch.PurchaseDate != nil {
		bond.PurchaseDate = *patch.PurchaseDate
	}
	if patch.MaturityDate != nil {
		bond.MaturityDate = *patch.MaturityDate
	}
	if patch.PaymentFrequency != nil {
		bond.PaymentFrequency = *patch.PaymentFrequency
	}

	return s.save(ctx, bond, bond.ISIN != storedISIN)
}

// DeleteBond removes one of the owner's bonds
func (s *BondService) DeleteBond(ctx context.Context, ownerID, bondID uuid.UUID) error {
	return s.BondRepo.Delete(ctx, ownerID, bondID)
}

// save validates and stores an existing bond
// The registry is only asked about an ISIN that differs from the stored one
func (s *BondService) save(ctx context.Context, bond *domain.Bond, isinChanged bool) (*domain.Bond, error) {
	if err := s.validate(ctx, bond, isinChanged); err != nil {
		return nil, err
	}

	if err := s.BondRepo.Update(ctx, bond); err != nil {
		if errors.Is(err, domain.ErrBondNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update bond: %w", err)
	}

	return bond, nil
}

func applyInput(bond *domain.Bond, input BondInput) {
	bond.Name = strings.TrimSpace(input.Name)
	bond.ISIN = domain.NormalizeISIN(input.ISIN)
	bond.Value = input.Value
	bond.InterestRate = input.InterestRate
	bond.PurchaseDate = input.PurchaseDate
	bond.MaturityDate = input.MaturityDate
	bond.PaymentFrequency = domain.DefaultPaymentFrequency
	if input.PaymentFrequency != nil {
		bond.PaymentFrequency = *input.PaymentFrequency
	}
}

// validate checks every field and reports all problems at once
// The registry is only asked when lookupISIN is set and everything else is valid
func (s *BondService) validate(ctx context.Context, bond *domain.Bond, lookupISIN bool) error {
	verr := domain.NewValidationError()

	if bond.Name == "" {
		verr.Add("name", "This field may not be blank.")
	} else if utf8.RuneCountInString(bond.Name) > maxNameLength {
		verr.Add("name", fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength))
	}

	if err := domain.ValidateISIN(bond.ISIN); err != nil {
		verr.Add("isin", "Invalid ISIN: "+bond.ISIN)
	}

	if !bond.Value.IsPositive() {
		verr.Add("value", "Value must be higher than 0")
	} else if msg := checkDigits(bond.Value, valueMaxDigits, valueMaxPlaces); msg != "" {
		verr.Add("value", msg)
	}

	if !bond.InterestRate.IsPositive() {
		verr.Add("interest_rate", "Interest rate must be higher than 0")
	} else if msg := checkDigits(bond.InterestRate, rateMaxDigits, rateMaxPlaces); msg != "" {
		verr.Add("interest_rate", msg)
	}

	if !bond.PurchaseDate.IsValid() {
		verr.Add("purchase_date", "A valid date is required.")
	}
	if !bond.MaturityDate.IsValid() {
		verr.Add("maturity_date", "A valid date is required.")
	}
	if bond.PurchaseDate.IsValid() && bond.MaturityDate.IsValid() && bond.MaturityDate.Before(bond.PurchaseDate) {
		verr.Add("maturity_date", "Maturity date must be after purchase date.")
	}

	if !bond.PaymentFrequency.Valid() {
		verr.Add("payment_frequency", fmt.Sprintf("\"%d\" is not a valid choice.", int(bond.PaymentFrequency)))
	}

	if verr.HasErrors() {
		return verr
	}

	if lookupISIN && s.Registry != nil {
		exists, err := s.Registry.Exists(ctx, bond.ISIN)
		if err != nil {
			return fmt.Errorf("failed to look up ISIN %s: %w", bond.ISIN, err)
		}
		if !exists {
			verr.Add("isin", "Invalid ISIN: "+bond.ISIN)
			return verr
		}
	}

	return nil
}

// checkDigits enforces a NUMERIC(maxDigits, maxPlaces) column
// Works on the coefficient and exponent so huge exponents are never expanded into text
func checkDigits(d decimal.Decimal, maxDigits, maxPlaces int32) string {
	coefficient := new(big.Int).Abs(d.Coefficient()).String()
	significant := strings.TrimRight(coefficient, "0")
	if significant == "" {
		return ""
	}

	// Trailing zeros do not count as decimal places
	exponent := int64(d.Exponent()) + int64(len(coefficient)-len(significant))

	places := int64(0)
	if exponent < 0 {
		places = -exponent
	}
	if places > int64(maxPlaces) {
		return fmt.Sprintf("Ensure that there are no more than %d decimal places.", maxPlaces)
	}

	integerDigits := int64(len(significant)) + exponent
	if integerDigits > int64(maxDigits-maxPlaces) {
		return fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", maxDigits-maxPlaces)
	}

	return ""
}
