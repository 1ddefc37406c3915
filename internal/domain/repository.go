package domain

import (
	"context"

	"github.com/google/uuid"
)

// BondRepository defines the interface for bond persistence operations
// Every read and write is scoped to a single owner
type BondRepository interface {
	// Create stores a new bond
	Create(ctx context.Context, bond *Bond) error

	// GetByID retrieves one of the owner's bonds
	// Returns ErrBondNotFound if it does not exist or belongs to another owner
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Bond, error)

	// ListByOwner retrieves all of the owner's bonds
	// Ordered by maturity date, then by creation order
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Bond, error)

	// CountByOwner returns the number of bonds held by the owner
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)

	// Update replaces the stored fields of an existing bond
	// Returns ErrBondNotFound if it does not exist or belongs to another owner
	Update(ctx context.Context, bond *Bond) error

	// Delete removes one of the owner's bonds
	// Returns ErrBondNotFound if it does not exist or belongs to another owner
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// ISINRegistry confirms that an ISIN has actually been issued
type ISINRegistry interface {
	// Exists reports whether the registry knows the ISIN
	// An error means the registry could not be asked, not that the ISIN is unknown
	Exists(ctx context.Context, isin string) (bool, error)
}
