package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/janskylukas/bond-service/internal/domain"
	"github.com/shopspring/decimal"
)

const bondColumns = `id, owner_id, name, isin, value, interest_rate, purchase_date, maturity_date, payment_frequency, created_at`

// bondRepository implements domain.BondRepository
type bondRepository struct {
	db *DB
}

// NewBondRepository creates a new bond repository
func NewBondRepository(db *DB) domain.BondRepository {
	return &bondRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBond(row rowScanner) (*domain.Bond, error) {
	var bond domain.Bond
	var valueStr, rateStr string
	var purchase, maturity time.Time
	var frequency int

	err := row.Scan(
		&bond.ID,
		&bond.OwnerID,
		&bond.Name,
		&bond.ISIN,
		&valueStr,
		&rateStr,
		&purchase,
		&maturity,
		&frequency,
		&bond.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Parse value and interest_rate (NUMERIC)
	if bond.Value, err = decimal.NewFromString(valueStr); err != nil {
		return nil, fmt.Errorf("failed to parse value: %w", err)
	}
	if bond.InterestRate, err = decimal.NewFromString(rateStr); err != nil {
		return nil, fmt.Errorf("failed to parse interest_rate: %w", err)
	}

	bond.PurchaseDate = civil.DateOf(purchase)
	bond.MaturityDate = civil.DateOf(maturity)
	if bond.PaymentFrequency, err = domain.ParsePaymentFrequency(frequency); err != nil {
		return nil, fmt.Errorf("failed to parse payment_frequency: %w", err)
	}

	return &bond, nil
}

// Create creates a new bond
func (r *bondRepository) Create(ctx context.Context, bond *domain.Bond) error {
	query := `
		INSERT INTO bonds (` + bondColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	createdAt := bond.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		bond.ID,
		bond.OwnerID,
		bond.Name,
		bond.ISIN,
		bond.Value.String(),
		bond.InterestRate.String(),
		bond.PurchaseDate.String(),
		bond.MaturityDate.String(),
		int(bond.PaymentFrequency),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create bond: %w", err)
	}

	return nil
}

// GetByID retrieves one of the owner's bonds by its ID
func (r *bondRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Bond, error) {
	query := `
		SELECT ` + bondColumns + `
		FROM bonds
		WHERE id = $1 AND owner_id = $2
	`

	bond, err := scanBond(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBondNotFound
		}
		return nil, fmt.Errorf("failed to get bond by ID: %w", err)
	}

	return bond, nil
}

// ListByOwner retrieves the owner's bonds ordered by maturity date
func (r *bondRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Bond, error) {
	query := `
		SELECT ` + bondColumns + `
		FROM bonds
		WHERE owner_id = $1
		ORDER BY maturity_date ASC, created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bonds: %w", err)
	}
	defer rows.Close()

	bonds := make([]*domain.Bond, 0)
	for rows.Next() {
		bond, err := scanBond(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bond: %w", err)
		}
		bonds = append(bonds, bond)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bonds: %w", err)
	}

	return bonds, nil
}

// CountByOwner returns the number of bonds held by the owner
func (r *bondRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bonds WHERE owner_id = $1`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bonds: %w", err)
	}
	return count, nil
}

// Update replaces the stored fields of one of the owner's bonds
func (r *bondRepository) Update(ctx context.Context, bond *domain.Bond) error {
	query := `
		UPDATE bonds
		SET name = $3, isin = $4, value = $5, interest_rate = $6,
		    purchase_date = $7, maturity_date = $8, payment_frequency = $9
		WHERE id = $1 AND owner_id = $2
	`

	result, err := r.db.ExecContext(ctx, query,
		bond.ID,
		bond.OwnerID,
		bond.Name,
		bond.ISIN,
		bond.Value.String(),
		bond.InterestRate.String(),
		bond.PurchaseDate.String(),
		bond.MaturityDate.String(),
		int(bond.PaymentFrequency),
	)
	if err != nil {
		return fmt.Errorf("failed to update bond: %w", err)
	}

	return expectOneRow(result)
}

// Delete removes one of the owner's bonds
func (r *bondRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bonds WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete bond: %w", err)
	}

	return expectOneRow(result)
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrBondNotFound
	}
	return nil
}
