package seeder

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/janskylukas/bond-service/internal/domain"
	"github.com/shopspring/decimal"
)

// DemoBond defines the structure for a demo bond to be seeded
type DemoBond struct {
	Name             string
	ISIN             string
	Value            string
	InterestRate     string
	PurchaseDate     civil.Date
	MaturityDate     civil.Date
	PaymentFrequency domain.PaymentFrequency
}

// DemoBonds is the portfolio given to a fresh owner
var DemoBonds = []DemoBond{
	{
		Name:             "Czech Government Bond 2025",
		ISIN:             "CZ0000705751",
		Value:            "1000.00",
		InterestRate:     "5.00",
		PurchaseDate:     civil.Date{Year: 2022, Month: time.January, Day: 1},
		MaturityDate:     civil.Date{Year: 2025, Month: time.January, Day: 1},
		PaymentFrequency: domain.PaymentFrequencyMonthly,
	},
	{
		Name:             "Savings Bond 2025",
		ISIN:             "CZ1008000047",
		Value:            "2000.00",
		InterestRate:     "7.00",
		PurchaseDate:     civil.Date{Year: 2022, Month: time.January, Day: 2},
		MaturityDate:     civil.Date{Year: 2025, Month: time.January, Day: 2},
		PaymentFrequency: domain.PaymentFrequencyAnnually,
	},
	{
		Name:             "Czech Government Bond 2033",
		ISIN:             "CZ0003551251",
		Value:            "1500.00",
		InterestRate:     "3.75",
		PurchaseDate:     civil.Date{Year: 2023, Month: time.March, Day: 15},
		MaturityDate:     civil.Date{Year: 2033, Month: time.March, Day: 15},
		PaymentFrequency: domain.PaymentFrequencyAnnually,
	},
}

// DemoSeeder handles seeding of the demo portfolio
type DemoSeeder struct {
	repo domain.BondRepository
	now  func() time.Time
}

// NewDemoSeeder creates a new DemoSeeder instance
func NewDemoSeeder(repo domain.BondRepository) *DemoSeeder {
	return &DemoSeeder{
		repo: repo,
		now:  time.Now,
	}
}

// Seed gives the owner the demo portfolio unless they already hold bonds
// Returns the number of bonds created
func (s *DemoSeeder) Seed(ctx context.Context, ownerID uuid.UUID) (int, error) {
	if ownerID == uuid.Nil {
		return 0, fmt.Errorf("owner ID is required")
	}

	count, err := s.repo.CountByOwner(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to count bonds: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	created := 0
	for i, demo := range DemoBonds {
		bond := &domain.Bond{
			ID:               uuid.New(),
			OwnerID:          ownerID,
			Name:             demo.Name,
			ISIN:             demo.ISIN,
			Value:            decimal.RequireFromString(demo.Value),
			InterestRate:     decimal.RequireFromString(demo.InterestRate),
			PurchaseDate:     demo.PurchaseDate,
			MaturityDate:     demo.MaturityDate,
			PaymentFrequency: demo.PaymentFrequency,
			// Spaced apart so listing order is stable
			CreatedAt: s.now().UTC().Add(time.Duration(i) * time.Microsecond),
		}

		// Validate before creating
		if err := bond.Validate(); err != nil {
			return created, err
		}
		if err := domain.ValidateISIN(bond.ISIN); err != nil {
			return created, err
		}

		if err := s.repo.Create(ctx, bond); err != nil {
			return created, fmt.Errorf("failed to create demo bond %s: %w", demo.ISIN, err)
		}
		created++
	}

	return created, nil
}
