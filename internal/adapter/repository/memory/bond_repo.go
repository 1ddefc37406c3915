package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/janskylukas/bond-service/internal/domain"
)

// ErrDuplicateBond is returned when a bond ID is stored twice
var ErrDuplicateBond = errors.New("bond already exists")

type bondRepository struct {
	mu    sync.RWMutex
	bonds map[uuid.UUID]*domain.Bond
	// order holds bond IDs in insertion order
	order []uuid.UUID
}

// NewBondRepository creates an in-process implementation of BondRepository
func NewBondRepository() domain.BondRepository {
	return &bondRepository{
		bonds: make(map[uuid.UUID]*domain.Bond),
	}
}

func (r *bondRepository) Create(ctx context.Context, bond *domain.Bond) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bonds[bond.ID]; exists {
		return fmt.Errorf("failed to create bond %s: %w", bond.ID, ErrDuplicateBond)
	}

	stored := *bond
	r.bonds[bond.ID] = &stored
	r.order = append(r.order, bond.ID)
	return nil
}

func (r *bondRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Bond, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	bond, ok := r.bonds[id]
	if !ok || bond.OwnerID != ownerID {
		return nil, domain.ErrBondNotFound
	}

	found := *bond
	return &found, nil
}

func (r *bondRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Bond, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	bonds := make([]*domain.Bond, 0)
	for _, id := range r.order {
		bond := r.bonds[id]
		if bond.OwnerID != ownerID {
			continue
		}
		found := *bond
		bonds = append(bonds, &found)
	}

	// Stable keeps insertion order among equal maturity dates
	sort.SliceStable(bonds, func(i, j int) bool {
		return bonds[i].MaturityDate.Before(bonds[j].MaturityDate)
	})

	return bonds, nil
}

func (r *bondRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, bond := range r.bonds {
		if bond.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (r *bondRepository) Update(ctx context.Context, bond *domain.Bond) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.bonds[bond.ID]
	if !ok || existing.OwnerID != bond.OwnerID {
		return domain.ErrBondNotFound
	}

	updated := *bond
	updated.CreatedAt = existing.CreatedAt
	r.bonds[bond.ID] = &updated
	return nil
}

func (r *bondRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	bond, ok := r.bonds[id]
	if !ok || bond.OwnerID != ownerID {
		return domain.ErrBondNotFound
	}

	delete(r.bonds, id)
	for i, orderedID := range r.order {
		if orderedID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
