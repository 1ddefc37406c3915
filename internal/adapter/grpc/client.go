package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// Client calls BondService over an existing connection
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a BondService client
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, fullMethod(method), in, out, opts...)
}

func (c *Client) CreateBond(ctx context.Context, in *CreateBondRequest, opts ...grpc.CallOption) (*Bond, error) {
	out := new(Bond)
	if err := c.invoke(ctx, "CreateBond", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetBond(ctx context.Context, in *GetBondRequest, opts ...grpc.CallOption) (*Bond, error) {
	out := new(Bond)
	if err := c.invoke(ctx, "GetBond", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListBonds(ctx context.Context, in *ListBondsRequest, opts ...grpc.CallOption) (*ListBondsResponse, error) {
	out := new(ListBondsResponse)
	if err := c.invoke(ctx, "ListBonds", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateBond(ctx context.Context, in *UpdateBondRequest, opts ...grpc.CallOption) (*Bond, error) {
	out := new(Bond)
	if err := c.invoke(ctx, "UpdateBond", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteBond(ctx context.Context, in *DeleteBondRequest, opts ...grpc.CallOption) (*DeleteBondResponse, error) {
	out := new(DeleteBondResponse)
	if err := c.invoke(ctx, "DeleteBond", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AnalyzePortfolio(ctx context.Context, in *AnalyzePortfolioRequest, opts ...grpc.CallOption) (*PortfolioSummary, error) {
	out := new(PortfolioSummary)
	if err := c.invoke(ctx, "AnalyzePortfolio", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
