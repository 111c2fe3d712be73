// Package ui exposes the statistical engines over a JSON HTTP API.
package ui

import (
	"net/http"

	"goposthoc/adapters/postgres"
	"goposthoc/internal"
	"goposthoc/internal/config"

	"github.com/gin-gonic/gin"
)

// Server represents the web server for the adjustment API
type Server struct {
	router *gin.Engine
	cfg    *config.Config
	runs   *postgres.RunRepository // nil when persistence is not configured
	logger *internal.Logger
}

// NewServer creates a new web server instance. runs may be nil; the run
// endpoints then answer 503.
func NewServer(cfg *config.Config, runs *postgres.RunRepository) *Server {
	gin.SetMode(cfg.Server.GinMode)
	s := &Server{
		router: gin.Default(),
		cfg:    cfg,
		runs:   runs,
		logger: internal.NewDefaultLogger("Server"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	api.POST("/adjust", s.handleAdjust)
	api.GET("/signrank/pmf", s.handleSignrankPMF)
	api.GET("/signrank/cdf", s.handleSignrankCDF)
	api.POST("/sweep", s.handleSweep)
	api.GET("/runs", s.handleListRuns)
	api.GET("/runs/:id", s.handleGetRun)
}

// Handler exposes the underlying router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the web server
func (s *Server) Start(addr string) error {
	s.logger.Info("starting API on http://%s", addr)
	return s.router.Run(addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	status := gin.H{
		"status":      "ok",
		"persistence": s.runs != nil,
	}
	c.JSON(http.StatusOK, status)
}
