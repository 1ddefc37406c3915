package grpc

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/janskylukas/bond-service/internal/auth"
	"github.com/janskylukas/bond-service/internal/logger"
)

// publicMethodPrefixes are served without a token
var publicMethodPrefixes = []string{
	"/grpc.health.v1.Health/",
	"/grpc.reflection.",
}

// AuthInterceptor returns a gRPC unary server interceptor that validates
// the bearer token from request metadata.
// If the token is missing or invalid, it returns status.Unauthenticated.
// If valid, it calls the handler with the owner stored in the context.
func AuthInterceptor(tokens *auth.TokenManager) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		for _, prefix := range publicMethodPrefixes {
			if strings.HasPrefix(info.FullMethod, prefix) {
				return handler(ctx, req)
			}
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		authHeaders := md.Get("authorization")
		if len(authHeaders) == 0 || authHeaders[0] == "" {
			return nil, status.Error(codes.Unauthenticated, "missing authorization header")
		}

		// Accept both "Bearer <token>" and the bare token
		token := auth.BearerToken(authHeaders[0])
		if token == "" {
			token = strings.TrimSpace(authHeaders[0])
		}

		ownerID, err := tokens.Verify(token)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		return handler(auth.WithOwner(ctx, ownerID), req)
	}
}

// LoggingInterceptor attaches the logger to the context and logs one line per RPC
func LoggingInterceptor(log *zap.SugaredLogger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(logger.WithContext(ctx, log), req)

		code := status.Code(err)
		fields := []interface{}{
			"method", info.FullMethod,
			"code", code.String(),
			"latency", time.Since(start),
		}

		switch code {
		case codes.OK:
			log.Infow("rpc", fields...)
		case codes.Internal, codes.Unknown, codes.DataLoss:
			log.Errorw("rpc failed", append(fields, "error", err)...)
		default:
			log.Warnw("rpc rejected", append(fields, "error", err)...)
		}

		return resp, err
	}
}
