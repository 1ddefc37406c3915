package bond

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/janskylukas/bond-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBondRepository is a mock implementation of BondRepository for testing
type MockBondRepository struct {
	mock.Mock
}

func (m *MockBondRepository) Create(ctx context.Context, bond *domain.Bond) error {
	args := m.Called(ctx, bond)
	return args.Error(0)
}

func (m *MockBondRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Bond, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bond), args.Error(1)
}

func (m *MockBondRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Bond, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Bond), args.Error(1)
}

func (m *MockBondRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	args := m.Called(ctx, ownerID)
	return args.Int(0), args.Error(1)
}

func (m *MockBondRepository) Update(ctx context.Context, bond *domain.Bond) error {
	args := m.Called(ctx, bond)
	return args.Error(0)
}

func (m *MockBondRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

// MockISINRegistry is a mock implementation of ISINRegistry for testing
type MockISINRegistry struct {
	mock.Mock
}

func (m *MockISINRegistry) Exists(ctx context.Context, isin string) (bool, error) {
	args := m.Called(ctx, isin)
	return args.Bool(0), args.Error(1)
}

func frequency(f domain.PaymentFrequency) *domain.PaymentFrequency {
	return &f
}

func validInput() BondInput {
	return BondInput{
		Name:             "Test Bond",
		ISIN:             "CZ0000705751",
		Value:            decimal.NewFromInt(1000),
		InterestRate:     decimal.NewFromInt(5),
		PurchaseDate:     civil.Date{Year: 2022, Month: time.January, Day: 1},
		MaturityDate:     civil.Date{Year: 2025, Month: time.January, Day: 1},
		PaymentFrequency: frequency(domain.PaymentFrequencyMonthly),
	}
}

func TestCreateBond_Success(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBondRepository)
	mockRegistry := new(MockISINRegistry)

	service := NewBondService(mockRepo, mockRegistry)
	fixedNow := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	service.Now = func() time.Time { return fixedNow }

	ownerID := uuid.New()
	input := validInput()
	input.ISIN = " cz0000705751 "
	input.Name = "  Test Bond "

	mockRegistry.On("Exists", ctx, "CZ0000705751").Return(true, nil)
	mockRepo.On("Create", ctx, mock.MatchedBy(func(b *domain.Bond) bool {
		return b.OwnerID == ownerID && b.ISIN == "CZ0000705751" && b.Name == "Test Bond"
	})).Return(nil)

	bond, err := service.CreateBond(ctx, ownerID, input)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, bond.ID)
	assert.Equal(t, ownerID, bond.OwnerID)
	assert.Equal(t, fixedNow, bond.CreatedAt)
	assert.Equal(t, 36, bond.Periods())

	mockRepo.AssertExpectations(t)
	mockRegistry.AssertExpectations(t)
}

func TestCreateBond_DefaultsToAnnualFrequency(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBondRepository)

	service := NewBondService(mockRepo, nil)

	input := validInput()
	input.PaymentFrequency = nil

	mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.Bond")).Return(nil)

	bond, err := service.CreateBond(ctx, uuid.New(), input)

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFrequencyAnnually, bond.PaymentFrequency)
	assert.Equal(t, 3, bond.Periods())
}

func TestCreateBond_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *BondInput)
		fields []string
	}{
		{
			name:   "blank name",
			mutate: func(in *BondInput) { in.Name = "   " },
			fields: []string{"name"},
		},
		{
			name:   "name too long",
			mutate: func(in *BondInput) { in.Name = strings.Repeat("x", 256) },
			fields: []string{"name"},
		},
		{
			name:   "bad ISIN check digit",
			mutate: func(in *BondInput) { in.ISIN = "US1234567890" },
			fields: []string{"isin"},
		},
		{
			name:   "short ISIN",
			mutate: func(in *BondInput) { in.ISIN = "CZ123" },
			fields: []string{"isin"},
		},
		{
			name:   "negative value",
			mutate: func(in *BondInput) { in.Value = decimal.NewFromInt(-1000) },
			fields: []string{"value"},
		},
		{
			name:   "value with three decimal places",
			mutate: func(in *BondInput) { in.Value = decimal.RequireFromString("10.005") },
			fields: []string{"value"},
		},
		{
			name:   "value too large",
			mutate: func(in *BondInput) { in.Value = decimal.RequireFromString("100000000000000000") },
			fields: []string{"value"},
		},
		{
			name:   "zero interest rate",
			mutate: func(in *BondInput) { in.InterestRate = decimal.Zero },
			fields: []string{"interest_rate"},
		},
		{
			name:   "interest rate too large",
			mutate: func(in *BondInput) { in.InterestRate = decimal.NewFromInt(1000) },
			fields: []string{"interest_rate"},
		},
		{
			name:   "maturity before purchase",
			mutate: func(in *BondInput) { in.MaturityDate = civil.Date{Year: 2021, Month: time.December, Day: 31} },
			fields: []string{"maturity_date"},
		},
		{
			name:   "missing maturity date",
			mutate: func(in *BondInput) { in.MaturityDate = civil.Date{} },
			fields: []string{"maturity_date"},
		},
		{
			name:   "unknown payment frequency",
			mutate: func(in *BondInput) { in.PaymentFrequency = frequency(domain.PaymentFrequency(6)) },
			fields: []string{"payment_frequency"},
		},
		{
			name:   "explicit zero payment frequency",
			mutate: func(in *BondInput) { in.PaymentFrequency = frequency(0) },
			fields: []string{"payment_frequency"},
		},
		{
			name:   "value with a huge negative exponent",
			mutate: func(in *BondInput) { in.Value = decimal.RequireFromString("1e-200000000") },
			fields: []string{"value"},
		},
		{
			name:   "value with a huge positive exponent",
			mutate: func(in *BondInput) { in.Value = decimal.RequireFromString("1e999999999") },
			fields: []string{"value"},
		},
		{
			name:   "interest rate with a huge negative exponent",
			mutate: func(in *BondInput) { in.InterestRate = decimal.RequireFromString("5e-999999999") },
			fields: []string{"interest_rate"},
		},
		{
			name: "everything wrong at once",
			mutate: func(in *BondInput) {
				in.Name = ""
				in.ISIN = "US1234567890"
				in.Value = decimal.NewFromInt(-1000)
				in.InterestRate = decimal.RequireFromString("-0.1")
			},
			fields: []string{"name", "isin", "value", "interest_rate"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			mockRepo := new(MockBondRepository)
			mockRegistry := new(MockISINRegistry)
			service := NewBondService(mockRepo, mockRegistry)

			input := validInput()
			tt.mutate(&input)

			bond, err := service.CreateBond(ctx, uuid.New(), input)

			assert.Nil(t, bond)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			for _, field := range tt.fields {
				assert.Contains(t, verr.Fields, field)
			}
			assert.Len(t, verr.Fields, len(tt.fields))

			// Neither storage nor the registry is touched for invalid input
			mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			mockRegistry.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateBond_UnknownToRegistry(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBondRepository)
	mockRegistry := new(MockISINRegistry)
	service := NewBondService(mockRepo, mockRegistry)

	mockRegistry.On("Exists", ctx, "CZ0000705751").Return(false, nil)

	_, err := service.CreateBond(ctx, uuid.New(), validInput())

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Invalid ISIN: CZ0000705751", verr.Fields["isin"])
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateBond_RegistryFailure(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBondRepository)
	mockRegistry := new(MockISINRegistry)
	service := NewBondService(mockRepo, mockRegistry)

	mockRegistry.On("Exists", ctx, "CZ0000705751").Return(false, errors.New("connection refused"))

	_, err := service.CreateBond(ctx, uuid.New(), validInput())

	require.Error(t, err)
	var verr *domain.ValidationError
	assert.False(t, errors.As(err, &verr))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCreateBond_RepositoryFailure(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBondRepository)
	service := NewBondService(mockRepo, nil)

	mockRepo.On("Create", ctx, mock.Anything).Return(errors.New("database is down"))

	_, err := service.CreateBond(ctx, uuid.New(), validInput())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create bond")
}

func TestUpdateBond_ReplacesFields(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBondRepository)
	service := NewBondService(mockRepo, nil)

	ownerID := uuid.New()
	bondID := uuid.New()
	createdAt := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	existing := &domain.Bond{
		ID:               bondID,
		OwnerID:          ownerID,
		Name:             "Old Name",
		ISIN:             "CZ0000705751",
		Value:            decimal.NewFromInt(500),
		InterestRate:     decimal.NewFromInt(2),
		PurchaseDate:     civil.Date{Year: 2020, Month: time.January, Day: 1},
		MaturityDate:     civil.Date{Year: 2030, Month: time.January, Day: 1},
		PaymentFrequency: domain.PaymentFrequencyAnnually,
		CreatedAt:        createdAt,
	}

	input := validInput()
	input.Name = "Updated Bond"
	input.ISIN = "CZ1008000047"

	mockRepo.On("GetByID", ctx, ownerID, bondID).Return(existing, nil)
	mockRepo.On("Update", ctx, mock.MatchedBy(func(b *domain.Bond) bool {
		return b.ID == bondID && b.Name == "Updated Bond" && b.ISIN == "CZ1008000047"
	})).Return(nil)

	bond, err := service.UpdateBond(ctx, ownerID, bondID, input)

	require.NoError(t, err)
	assert.Equal(t, "Updated Bond", bond.Name)
	assert.Equal(t, ownerID, bond.OwnerID)
	assert.Equal(t, createdAt, bond.CreatedAt)
	assert.True(t, bond.Value.Equal(decimal.NewFromInt(1000)))
	mockRepo.AssertExpectations(t)
}

func TestUpdateBond_NotFound(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBondRepository)
	service := NewBondService(mockRepo, nil)

	ownerID := uuid.New()
	bondID := uuid.New()
	mockRepo.On("GetByID", ctx, ownerID, bondID).Return(nil, domain.ErrBondNotFound)

	_, err := service.UpdateBond(ctx, ownerID, bondID, validInput())

	assert.ErrorIs(t, err, domain.ErrBondNotFound)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestPatchBond_OnlyChangesGivenFields(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBondRepository)
	service := NewBondService(mockRepo, nil)

	ownerID := uuid.New()
	bondID := uuid.New()
	existing := &domain.Bond{
		ID:               bondID,
		OwnerID:          ownerID,
		Name:             "Keep Me",
		ISIN:             "CZ0000705751",
		Value:            decimal.NewFromInt(1000),
		InterestRate:     decimal.NewFromInt(5),
		PurchaseDate:     civil.Date{Year: 2022, Month: time.January, Day: 1},
		MaturityDate:     civil.Date{Year: 2025, Month: time.January, Day: 1},
		PaymentFrequency: domain.PaymentFrequencyAnnually,
	}

	newRate := decimal.RequireFromString("6.25")
	monthly := domain.PaymentFrequencyMonthly

	mockRepo.On("GetByID", ctx, ownerID, bondID).Return(existing, nil)
	mockRepo.On("Update", ctx, mock.Anything).Return(nil)

	bond, err := service.PatchBond(ctx, ownerID, bondID, BondPatch{
		InterestRate:     &newRate,
		PaymentFrequency: &monthly,
	})

	require.NoError(t, err)
	assert.Equal(t, "Keep Me", bond.Name)
	assert.True(t, bond.InterestRate.Equal(newRate))
	assert.Equal(t, domain.PaymentFrequencyMonthly, bond.PaymentFrequency)
	assert.True(t, bond.Value.Equal(decimal.NewFromInt(1000)))
}

func TestPatchBond_RejectsInvalidResult(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBondRepository)
	service := NewBondService(mockRepo, nil)

	ownerID := uuid.New()
	bondID := uuid.New()
	existing := &domain.Bond{
		ID:               bondID,
		OwnerID:          ownerID,
		Name:             "Bond",
		ISIN:             "CZ0000705751",
		Value:            decimal.NewFromInt(1000),
		InterestRate:     decimal.NewFromInt(5),
		PurchaseDate:     civil.Date{Year: 2022, Month: time.January, Day: 1},
		MaturityDate:     civil.Date{Year: 2025, Month: time.January, Day: 1},
		PaymentFrequency: domain.PaymentFrequencyAnnually,
	}
	earlier := civil.Date{Year: 2021, Month: time.June, Day: 1}

	mockRepo.On("GetByID", ctx, ownerID, bondID).Return(existing, nil)

	_, err := service.PatchBond(ctx, ownerID, bondID, BondPatch{MaturityDate: &earlier})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "maturity_date")
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDeleteBond(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBondRepository)
	service := NewBondService(mockRepo, nil)

	ownerID := uuid.New()
	bondID := uuid.New()
	mockRepo.On("Delete", ctx, ownerID, bondID).Return(nil).Once()
	mockRepo.On("Delete", ctx, ownerID, bondID).Return(domain.ErrBondNotFound).Once()

	assert.NoError(t, service.DeleteBond(ctx, ownerID, bondID))
	assert.ErrorIs(t, service.DeleteBond(ctx, ownerID, bondID), domain.ErrBondNotFound)
	mockRepo.AssertExpectations(t)
}

func TestListBonds(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBondRepository)
	service := NewBondService(mockRepo, nil)

	ownerID := uuid.New()
	bonds := []*domain.Bond{{ID: uuid.New(), OwnerID: ownerID}, {ID: uuid.New(), OwnerID: ownerID}}
	mockRepo.On("ListByOwner", ctx, ownerID).Return(bonds, nil)

	got, err := service.ListBonds(ctx, ownerID)

	require.NoError(t, err)
	assert.Len(t, got, 2)
	mockRepo.AssertExpectations(t)
}

func TestCreateBond_HugeExponentRejectedQuickly(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBondRepository)
	service := NewBondService(mockRepo, nil)

	for _, value := range []string{"1e-200000000", "1e999999999"} {
		input := validInput()
		input.Value = decimal.RequireFromString(value)

		start := time.Now()
		_, err := service.CreateBond(ctx, uuid.New(), input)
		elapsed := time.Since(start)

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr, value)
		assert.Contains(t, verr.Fields, "value", value)
		assert.Less(t, elapsed, 100*time.Millisecond, value)
	}
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCheckDigits(t *testing.T) {
	tests := []struct {
		value   string
		wantMsg string
	}{
		{"1000", ""},
		{"1000.50", ""},
		{"10.500", ""},
		{"1E+3", ""},
		{"0.01", ""},
		{"99999999999999999.99", ""},
		{"10.005", "no more than 2 decimal places"},
		{"0.001", "no more than 2 decimal places"},
		{"1e-200000000", "no more than 2 decimal places"},
		{"100000000000000000", "no more than 17 digits before the decimal point"},
		{"1e17", "no more than 17 digits before the decimal point"},
		{"1e999999999", "no more than 17 digits before the decimal point"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			msg := checkDigits(decimal.RequireFromString(tt.value), valueMaxDigits, valueMaxPlaces)
			if tt.wantMsg == "" {
				assert.Empty(t, msg)
			} else {
				assert.Contains(t, msg, tt.wantMsg)
			}
		})
	}
}

func existingBond(ownerID, bondID uuid.UUID) *domain.Bond {
	return &domain.Bond{
		ID:               bondID,
		OwnerID:          ownerID,
		Name:             "Bond",
		ISIN:             "CZ0000705751",
		Value:            decimal.NewFromInt(1000),
		InterestRate:     decimal.NewFromInt(5),
		PurchaseDate:     civil.Date{Year: 2022, Month: time.January, Day: 1},
		MaturityDate:     civil.Date{Year: 2025, Month: time.January, Day: 1},
		PaymentFrequency: domain.PaymentFrequencyAnnually,
	}
}

func TestPatchBond_SkipsRegistryWhenISINUnchanged(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBondRepository)
	mockRegistry := new(MockISINRegistry)
	service := NewBondService(mockRepo, mockRegistry)

	ownerID := uuid.New()
	bondID := uuid.New()
	name := "Renamed"
	sameISIN := " cz0000705751 "

	mockRepo.On("GetByID", ctx, ownerID, bondID).Return(existingBond(ownerID, bondID), nil).Twice()
	mockRepo.On("Update", ctx, mock.Anything).Return(nil).Twice()

	bond, err := service.PatchBond(ctx, ownerID, bondID, BondPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", bond.Name)

	_, err = service.PatchBond(ctx, ownerID, bondID, BondPatch{ISIN: &sameISIN})
	require.NoError(t, err)

	mockRegistry.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestPatchBond_AsksRegistryForNewISIN(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBondRepository)
	mockRegistry := new(MockISINRegistry)
	service := NewBondService(mockRepo, mockRegistry)

	ownerID := uuid.New()
	bondID := uuid.New()
	newISIN := "CZ1008000047"

	mockRepo.On("GetByID", ctx, ownerID, bondID).Return(existingBond(ownerID, bondID), nil)
	mockRegistry.On("Exists", ctx, "CZ1008000047").Return(false, nil)

	_, err := service.PatchBond(ctx, ownerID, bondID, BondPatch{ISIN: &newISIN})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Invalid ISIN: CZ1008000047", verr.Fields["isin"])
	mockRegistry.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateBond_RegistryDownDoesNotBlockOtherEdits(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBondRepository)
	mockRegistry := new(MockISINRegistry)
	service := NewBondService(mockRepo, mockRegistry)

	ownerID := uuid.New()
	bondID := uuid.New()
	mockRegistry.On("Exists", mock.Anything, mock.Anything).Return(false, errors.New("connection refused"))

	mockRepo.On("GetByID", ctx, ownerID, bondID).Return(existingBond(ownerID, bondID), nil)
	mockRepo.On("Update", ctx, mock.Anything).Return(nil)

	input := validInput()
	input.Name = "Same ISIN, new name"

	bond, err := service.UpdateBond(ctx, ownerID, bondID, input)

	require.NoError(t, err)
	assert.Equal(t, "Same ISIN, new name", bond.Name)
	mockRegistry.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
}
