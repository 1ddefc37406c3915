// Package rest exposes the bond service over a JSON REST API
package rest

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/janskylukas/bond-service/internal/auth"
	"github.com/janskylukas/bond-service/internal/domain"
	"github.com/janskylukas/bond-service/internal/usecase/bond"
	"github.com/janskylukas/bond-service/internal/usecase/portfolio"
)

// Server serves the REST API
type Server struct {
	BondService      *bond.BondService
	PortfolioService *portfolio.PortfolioService
	Tokens           *auth.TokenManager
	Numeric          domain.NumericContext
	Logger           *zap.SugaredLogger
	AllowedOrigins   []string
}

// NewServer creates a new REST server instance
func NewServer(
	bondService *bond.BondService,
	portfolioService *portfolio.PortfolioService,
	tokens *auth.TokenManager,
	logger *zap.SugaredLogger,
) *Server {
	return &Server{
		BondService:      bondService,
		PortfolioService: portfolioService,
		Tokens:           tokens,
		Numeric:          portfolioService.Numeric,
		Logger:           logger,
		AllowedOrigins:   []string{"*"},
	}
}

// Router builds the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.corsMiddleware())
	router.Use(s.requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api", s.authRequired())
	{
		api.GET("/bonds", s.listBonds)
		api.POST("/bonds", s.createBond)
		api.GET("/bonds/portfolio-analysis", s.portfolioAnalysis)
		api.GET("/bonds/:id", s.getBond)
		api.PUT("/bonds/:id", s.updateBond)
		api.PATCH("/bonds/:id", s.patchBond)
		api.DELETE("/bonds/:id", s.deleteBond)
	}

	return router
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")

	allowAll := len(s.AllowedOrigins) == 0
	for _, origin := range s.AllowedOrigins {
		if origin == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.AllowedOrigins
	}

	return cors.New(cfg)
}
