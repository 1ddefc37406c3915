package portfolio

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/janskylukas/bond-service/internal/domain"
)

// PortfolioService aggregates an owner's bonds into a summary
type PortfolioService struct {
	BondRepo domain.BondRepository
	Numeric  domain.NumericContext
}

// NewPortfolioService creates a new PortfolioService instance
func NewPortfolioService(bondRepo domain.BondRepository, nc domain.NumericContext) *PortfolioService {
	return &PortfolioService{
		BondRepo: bondRepo,
		Numeric:  nc,
	}
}

// Analyze loads the owner's bonds and computes the portfolio summary
// Returns domain.ErrEmptyPortfolio when the owner holds no bonds
func (s *PortfolioService) Analyze(ctx context.Context, ownerID uuid.UUID) (*domain.PortfolioSummary, error) {
	bonds, err := s.BondRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bonds: %w", err)
	}

	return domain.AnalyzePortfolio(s.Numeric, bonds)
}
