package grpc

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/janskylukas/bond-service/internal/auth"
	"github.com/janskylukas/bond-service/internal/domain"
	"github.com/janskylukas/bond-service/internal/logger"
	"github.com/janskylukas/bond-service/internal/usecase/bond"
	"github.com/janskylukas/bond-service/internal/usecase/portfolio"
)

// Server implements the BondService gRPC server
type Server struct {
	BondService      *bond.BondService
	PortfolioService *portfolio.PortfolioService
}

// NewServer creates a new gRPC server instance
func NewServer(
	bondService *bond.BondService,
	portfolioService *portfolio.PortfolioService,
) *Server {
	return &Server{
		BondService:      bondService,
		PortfolioService: portfolioService,
	}
}

// CreateBond handles the CreateBond RPC
func (s *Server) CreateBond(ctx context.Context, req *CreateBondRequest) (*Bond, error) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}

	patch, err := parseFields(req.Bond, nil)
	if err != nil {
		return nil, err
	}

	b, err := s.BondService.CreateBond(ctx, ownerID, patch.input())
	if err != nil {
		return nil, mapError(ctx, err)
	}

	return s.toBond(b), nil
}

// GetBond handles the GetBond RPC
func (s *Server) GetBond(ctx context.Context, req *GetBondRequest) (*Bond, error) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}

	bondID, err := parseBondID(req.ID)
	if err != nil {
		return nil, err
	}

	b, err := s.BondService.GetBond(ctx, ownerID, bondID)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	return s.toBond(b), nil
}

// ListBonds handles the ListBonds RPC
func (s *Server) ListBonds(ctx context.Context, req *ListBondsRequest) (*ListBondsResponse, error) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}

	bonds, err := s.BondService.ListBonds(ctx, ownerID)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	resp := &ListBondsResponse{Bonds: make([]*Bond, 0, len(bonds))}
	for _, b := range bonds {
		resp.Bonds = append(resp.Bonds, s.toBond(b))
	}

	return resp, nil
}

// UpdateBond handles the UpdateBond RPC
func (s *Server) UpdateBond(ctx context.Context, req *UpdateBondRequest) (*Bond, error) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}

	bondID, err := parseBondID(req.ID)
	if err != nil {
		return nil, err
	}

	patch, err := parseFields(req.Bond, req.UpdateMask)
	if err != nil {
		return nil, err
	}

	var b *domain.Bond
	if len(req.UpdateMask) == 0 {
		b, err = s.BondService.UpdateBond(ctx, ownerID, bondID, patch.input())
	} else {
		b, err = s.BondService.PatchBond(ctx, ownerID, bondID, patch.BondPatch)
	}
	if err != nil {
		return nil, mapError(ctx, err)
	}

	return s.toBond(b), nil
}

// DeleteBond handles the DeleteBond RPC
func (s *Server) DeleteBond(ctx context.Context, req *DeleteBondRequest) (*DeleteBondResponse, error) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}

	bondID, err := parseBondID(req.ID)
	if err != nil {
		return nil, err
	}

	if err := s.BondService.DeleteBond(ctx, ownerID, bondID); err != nil {
		return nil, mapError(ctx, err)
	}

	return &DeleteBondResponse{}, nil
}

// AnalyzePortfolio handles the AnalyzePortfolio RPC
func (s *Server) AnalyzePortfolio(ctx context.Context, req *AnalyzePortfolioRequest) (*PortfolioSummary, error) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := s.PortfolioService.Analyze(ctx, ownerID)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	return &PortfolioSummary{
		TotalValue:          summary.TotalValue.StringFixed(domain.MoneyPlaces),
		AverageInterestRate: summary.AverageInterestRate.String(),
		NearestMaturityBond: s.toBond(&summary.NearestMaturityBond),
		FutureValue:         summary.FutureValue.StringFixed(domain.MoneyPlaces),
		BondCount:           summary.BondCount,
	}, nil
}

func (s *Server) toBond(b *domain.Bond) *Bond {
	return &Bond{
		ID:               b.ID.String(),
		OwnerID:          b.OwnerID.String(),
		Name:             b.Name,
		ISIN:             b.ISIN,
		Value:            b.Value.StringFixed(domain.MoneyPlaces),
		InterestRate:     b.InterestRate.StringFixed(2),
		PurchaseDate:     b.PurchaseDate.String(),
		MaturityDate:     b.MaturityDate.String(),
		PaymentFrequency: b.PaymentFrequency.String(),
		Periods:          b.Periods(),
		FutureValue:      b.FutureValue(s.PortfolioService.Numeric).StringFixed(domain.MoneyPlaces),
	}
}

func requireOwner(ctx context.Context) (uuid.UUID, error) {
	ownerID, ok := auth.OwnerFromContext(ctx)
	if !ok {
		return uuid.Nil, status.Error(codes.Unauthenticated, "missing owner")
	}
	return ownerID, nil
}

func parseBondID(id string) (uuid.UUID, error) {
	bondID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid id format: %v", err)
	}
	return bondID, nil
}

type fieldPatch struct {
	bond.BondPatch
}

// input turns a patch with every field set into a full input
func (p fieldPatch) input() bond.BondInput {
	var in bond.BondInput
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.ISIN != nil {
		in.ISIN = *p.ISIN
	}
	if p.Value != nil {
		in.Value = *p.Value
	}
	if p.InterestRate != nil {
		in.InterestRate = *p.InterestRate
	}
	if p.PurchaseDate != nil {
		in.PurchaseDate = *p.PurchaseDate
	}
	if p.MaturityDate != nil {
		in.MaturityDate = *p.MaturityDate
	}
	in.PaymentFrequency = p.PaymentFrequency
	return in
}

// parseFields converts wire fields; with a mask only the named fields are parsed
// An empty value or date is left to the usecase validation
func parseFields(f BondFields, mask []string) (fieldPatch, error) {
	selected := func(string) bool { return true }
	if len(mask) > 0 {
		paths := make(map[string]bool, len(mask))
		for _, path := range mask {
			paths[strings.TrimSpace(path)] = true
		}
		selected = func(path string) bool { return paths[path] }

		for path := range paths {
			switch path {
			case "name", "isin", "value", "interest_rate", "purchase_date", "maturity_date", "payment_frequency":
			default:
				return fieldPatch{}, status.Errorf(codes.InvalidArgument, "unknown update_mask path %q", path)
			}
		}
	}

	var p fieldPatch

	if selected("name") {
		p.Name = &f.Name
	}
	if selected("isin") {
		p.ISIN = &f.ISIN
	}

	if selected("value") {
		value, err := parseDecimal(f.Value)
		if err != nil {
			return fieldPatch{}, status.Errorf(codes.InvalidArgument, "invalid value format: %v", err)
		}
		p.Value = &value
	}

	if selected("interest_rate") {
		rate, err := parseDecimal(f.InterestRate)
		if err != nil {
			return fieldPatch{}, status.Errorf(codes.InvalidArgument, "invalid interest_rate format: %v", err)
		}
		p.InterestRate = &rate
	}

	if selected("purchase_date") {
		d, err := parseDate(f.PurchaseDate)
		if err != nil {
			return fieldPatch{}, status.Errorf(codes.InvalidArgument, "invalid purchase_date format: %v", err)
		}
		p.PurchaseDate = &d
	}

	if selected("maturity_date") {
		d, err := parseDate(f.MaturityDate)
		if err != nil {
			return fieldPatch{}, status.Errorf(codes.InvalidArgument, "invalid maturity_date format: %v", err)
		}
		p.MaturityDate = &d
	}

	// Without a mask an empty frequency selects the default
	if selected("payment_frequency") && (f.PaymentFrequency != "" || len(mask) > 0) {
		freq, err := parseFrequency(f.PaymentFrequency)
		if err != nil {
			return fieldPatch{}, status.Errorf(codes.InvalidArgument, "invalid payment_frequency: %v", err)
		}
		p.PaymentFrequency = &freq
	}

	return p, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func parseDate(s string) (civil.Date, error) {
	if s == "" {
		return civil.Date{}, nil
	}
	return civil.ParseDate(s)
}

// parseFrequency accepts a label or a month count
// Unknown month counts pass through so validation reports them as invalid choices
func parseFrequency(s string) (domain.PaymentFrequency, error) {
	if months, err := strconv.Atoi(s); err == nil {
		return domain.PaymentFrequency(months), nil
	}
	return domain.ParsePaymentFrequencyName(s)
}

// mapError converts domain errors to gRPC status errors
func mapError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return status.Errorf(codes.InvalidArgument, "%s", verr.Error())
	case errors.Is(err, domain.ErrBondNotFound):
		return status.Errorf(codes.NotFound, "%s", err.Error())
	case errors.Is(err, domain.ErrEmptyPortfolio):
		return status.Errorf(codes.FailedPrecondition, "%s", err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	// Default to Internal error for unknown errors
	logger.FromContext(ctx).Errorw("rpc error", "error", err)
	return status.Error(codes.Internal, "internal error")
}
