package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/janskylukas/bond-service/internal/adapter/grpc"
	"github.com/janskylukas/bond-service/internal/adapter/rest"
	"github.com/janskylukas/bond-service/internal/config"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST and gRPC servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.db != nil {
		if err := a.db.Migrate(ctx); err != nil {
			return err
		}
	}

	// Seed the configured owner's demo portfolio
	if a.cfg.Seed.Owner != "" {
		ownerID, err := uuid.Parse(a.cfg.Seed.Owner)
		if err != nil {
			return fmt.Errorf("invalid seed owner %q: %w", a.cfg.Seed.Owner, err)
		}
		created, err := a.seeder.Seed(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("failed to seed demo bonds: %w", err)
		}
		a.log.Infow("demo bonds seeded", "owner", ownerID, "created", created)
	}

	// REST server
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	restServer := rest.NewServer(a.bondService, a.portfolioService, a.tokens, a.log.Named("http"))
	restServer.AllowedOrigins = a.cfg.HTTP.AllowedOrigins
	httpServer := &http.Server{
		Addr:              a.cfg.HTTP.Addr(),
		Handler:           restServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)

	// gRPC server, listening before HTTP starts
	var grpcServer *grpclib.Server
	if a.cfg.GRPC.Port > 0 {
		grpcServer, err = startGRPC(a, a.cfg.GRPC, errCh)
		if err != nil {
			return err
		}
	}

	go func() {
		a.log.Infow("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to serve HTTP: %w", err)
		}
	}()

	// Graceful shutdown
	return waitForShutdown(a, httpServer, grpcServer, errCh)
}

func startGRPC(a *app, cfg config.GRPCConfig, errCh chan<- error) (*grpclib.Server, error) {
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(a.log.Named("grpc")),
			grpcadapter.AuthInterceptor(a.tokens),
		),
	)

	grpcadapter.RegisterBondServiceServer(grpcServer, grpcadapter.NewServer(a.bondService, a.portfolioService))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(grpcadapter.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Addr(), err)
	}

	go func() {
		a.log.Infow("gRPC server listening", "addr", cfg.Addr())
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("failed to serve gRPC: %w", err)
		}
	}()

	return grpcServer, nil
}

// waitForShutdown waits for SIGTERM, SIGINT or a server failure and gracefully shuts down the servers
func waitForShutdown(a *app, httpServer *http.Server, grpcServer *grpclib.Server, errCh <-chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	var serveErr error
	select {
	case sig := <-sigChan:
		a.log.Infow("received signal, shutting down gracefully", "signal", sig.String())
	case serveErr = <-errCh:
		a.log.Errorw("server failed, shutting down", "error", serveErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		a.log.Warnw("HTTP server shutdown", "error", err)
	}
	a.log.Infow("HTTP server stopped")

	if grpcServer != nil {
		grpcServer.GracefulStop()
		a.log.Infow("gRPC server stopped")
	}

	return serveErr
}
