package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/janskylukas/bond-service/internal/adapter/registry"
	"github.com/janskylukas/bond-service/internal/adapter/repository/memory"
	"github.com/janskylukas/bond-service/internal/adapter/repository/postgres"
	"github.com/janskylukas/bond-service/internal/auth"
	"github.com/janskylukas/bond-service/internal/config"
	"github.com/janskylukas/bond-service/internal/domain"
	"github.com/janskylukas/bond-service/internal/logger"
	"github.com/janskylukas/bond-service/internal/usecase/bond"
	"github.com/janskylukas/bond-service/internal/usecase/portfolio"
	"github.com/janskylukas/bond-service/internal/usecase/seeder"
)

// app holds the wired dependencies shared by the commands
type app struct {
	cfg    *config.Config
	log    *zap.SugaredLogger
	db     *postgres.DB
	tokens *auth.TokenManager

	bondRepo         domain.BondRepository
	bondService      *bond.BondService
	portfolioService *portfolio.PortfolioService
	seeder           *seeder.DemoSeeder
}

func loadConfig(opts *rootOptions) (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.Load(opts.configPaths...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Environment, cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}

	return cfg, log, nil
}

func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, log, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log}

	// 1. Setup storage
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		db, err := postgres.NewDB(ctx, cfg.Storage.Postgres.ConnectionString())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.db = db
		a.bondRepo = postgres.NewBondRepository(db)
	default:
		log.Warnw("using in-memory storage, bonds are lost on exit")
		a.bondRepo = memory.NewBondRepository()
	}

	// 2. ISIN registry
	var isinRegistry domain.ISINRegistry = registry.Offline{}
	if cfg.Registry.Enabled {
		isinRegistry = registry.NewClient(
			registry.WithBaseURL(cfg.Registry.BaseURL),
			registry.WithRateLimit(cfg.Registry.RateLimit),
			registry.WithTimeout(cfg.Registry.GetTimeout()),
			registry.WithLogger(log.Named("registry")),
		)
	}

	// 3. Services
	nc, err := cfg.Valuation.NumericContext()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.bondService = bond.NewBondService(a.bondRepo, isinRegistry)
	a.portfolioService = portfolio.NewPortfolioService(a.bondRepo, nc)
	a.seeder = seeder.NewDemoSeeder(a.bondRepo)

	a.tokens, err = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.GetTokenExpiry())
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// Close releases the database connection and flushes the logger
func (a *app) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warnw("failed to close database", "error", err)
		}
	}
	_ = a.log.Sync()
}
