package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "bondservice.v1.BondService"

// BondServiceServer is the server API for the BondService service
type BondServiceServer interface {
	CreateBond(context.Context, *CreateBondRequest) (*Bond, error)
	GetBond(context.Context, *GetBondRequest) (*Bond, error)
	ListBonds(context.Context, *ListBondsRequest) (*ListBondsResponse, error)
	UpdateBond(context.Context, *UpdateBondRequest) (*Bond, error)
	DeleteBond(context.Context, *DeleteBondRequest) (*DeleteBondResponse, error)
	AnalyzePortfolio(context.Context, *AnalyzePortfolioRequest) (*PortfolioSummary, error)
}

// BondServiceDesc describes BondService for grpc.Server.RegisterService
var BondServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BondServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateBond", Handler: unaryHandler("CreateBond", BondServiceServer.CreateBond)},
		{MethodName: "GetBond", Handler: unaryHandler("GetBond", BondServiceServer.GetBond)},
		{MethodName: "ListBonds", Handler: unaryHandler("ListBonds", BondServiceServer.ListBonds)},
		{MethodName: "UpdateBond", Handler: unaryHandler("UpdateBond", BondServiceServer.UpdateBond)},
		{MethodName: "DeleteBond", Handler: unaryHandler("DeleteBond", BondServiceServer.DeleteBond)},
		{MethodName: "AnalyzePortfolio", Handler: unaryHandler("AnalyzePortfolio", BondServiceServer.AnalyzePortfolio)},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterBondServiceServer registers srv with the gRPC server
func RegisterBondServiceServer(s grpc.ServiceRegistrar, srv BondServiceServer) {
	s.RegisterService(&BondServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unaryHandler[Req, Resp any](method string, call func(BondServiceServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BondServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BondServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
