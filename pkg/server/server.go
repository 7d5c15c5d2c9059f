package server

import (
	"net/http"

	"github.com/duynguyendang/quadcql/internal/manager"
	"github.com/duynguyendang/quadcql/pkg/config"
	"github.com/gin-gonic/gin"
)

// Server holds the state for the REST API server.
type Server struct {
	manager *manager.KeyspaceManager
	cfg     *config.Config
	router  *gin.Engine
}

// NewServer creates a new Server instance.
func NewServer(mgr *manager.KeyspaceManager, cfg *config.Config) *Server {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	s := &Server{
		manager: mgr,
		cfg:     cfg,
		router:  r,
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server on the specified address.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	v1 := s.router.Group("/v1")
	v1.GET("/keyspaces", s.handleKeyspaces)
	v1.GET("/schema", s.handleSchema)
	v1.POST("/plan", s.handlePlan)
	v1.POST("/find", s.handleFind)
	v1.POST("/quads", s.handleInsert)
	v1.DELETE("/quads", s.handleDelete)
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}
