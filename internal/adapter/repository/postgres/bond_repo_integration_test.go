//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/janskylukas/bond-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDB *DB

// TestMain connects to the database and applies the schema
func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	testDB, err = NewDB(ctx, getDBConnectionString())
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}

	if err := testDB.Migrate(ctx); err != nil {
		panic(fmt.Sprintf("Failed to migrate database: %v", err))
	}

	code := m.Run()

	testDB.Close()
	os.Exit(code)
}

// getDBConnectionString returns the database connection string from environment or defaults
func getDBConnectionString() string {
	if connStr := os.Getenv("DB_CONN_STR"); connStr != "" {
		return connStr
	}
	return "host=localhost port=5432 user=postgres password=postgres dbname=bonds sslmode=disable"
}

func newTestBond(ownerID uuid.UUID, maturity civil.Date, createdAt time.Time) *domain.Bond {
	return &domain.Bond{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		Name:             "Integration Bond",
		ISIN:             "CZ0000705751",
		Value:            decimal.RequireFromString("1000.50"),
		InterestRate:     decimal.RequireFromString("4.25"),
		PurchaseDate:     civil.Date{Year: 2022, Month: time.January, Day: 1},
		MaturityDate:     maturity,
		PaymentFrequency: domain.PaymentFrequencyMonthly,
		CreatedAt:        createdAt,
	}
}

func TestBondRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewBondRepository(testDB)
	ownerID := uuid.New()

	bond := newTestBond(ownerID, civil.Date{Year: 2025, Month: time.January, Day: 1}, time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, repo.Create(ctx, bond))

	got, err := repo.GetByID(ctx, ownerID, bond.ID)
	require.NoError(t, err)
	assert.Equal(t, bond.Name, got.Name)
	assert.Equal(t, bond.ISIN, got.ISIN)
	assert.True(t, bond.Value.Equal(got.Value), "value: %s", got.Value)
	assert.True(t, bond.InterestRate.Equal(got.InterestRate), "rate: %s", got.InterestRate)
	assert.Equal(t, bond.PurchaseDate, got.PurchaseDate)
	assert.Equal(t, bond.MaturityDate, got.MaturityDate)
	assert.Equal(t, bond.PaymentFrequency, got.PaymentFrequency)
	assert.Equal(t, 36, got.Periods())

	_, err = repo.GetByID(ctx, uuid.New(), bond.ID)
	assert.ErrorIs(t, err, domain.ErrBondNotFound)

	got.Name = "Renamed"
	require.NoError(t, repo.Update(ctx, got))
	renamed, err := repo.GetByID(ctx, ownerID, bond.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", renamed.Name)

	require.NoError(t, repo.Delete(ctx, ownerID, bond.ID))
	assert.ErrorIs(t, repo.Delete(ctx, ownerID, bond.ID), domain.ErrBondNotFound)
}

func TestBondRepository_ListOrderAndCount(t *testing.T) {
	ctx := context.Background()
	repo := NewBondRepository(testDB)
	ownerID := uuid.New()
	base := time.Now().UTC()

	late := newTestBond(ownerID, civil.Date{Year: 2030, Month: time.June, Day: 1}, base)
	tieFirst := newTestBond(ownerID, civil.Date{Year: 2026, Month: time.June, Day: 1}, base.Add(time.Second))
	tieSecond := newTestBond(ownerID, civil.Date{Year: 2026, Month: time.June, Day: 1}, base.Add(2*time.Second))

	for _, b := range []*domain.Bond{late, tieSecond, tieFirst} {
		require.NoError(t, repo.Create(ctx, b))
	}
	t.Cleanup(func() {
		for _, b := range []*domain.Bond{late, tieFirst, tieSecond} {
			_ = repo.Delete(ctx, ownerID, b.ID)
		}
	})

	list, err := repo.ListByOwner(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, tieFirst.ID, list[0].ID)
	assert.Equal(t, tieSecond.ID, list[1].ID)
	assert.Equal(t, late.ID, list[2].ID)

	count, err := repo.CountByOwner(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
