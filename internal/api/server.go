package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gbasileGP/chess-card/internal/card"
	"github.com/gbasileGP/chess-card/internal/model"
	"github.com/gbasileGP/chess-card/service"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CardRenderer renders a player card at a resolved size.
type CardRenderer interface {
	RenderCard(ctx context.Context, username string, size card.Size) ([]byte, error)
}

// RenderCounter is the read side of the render tally, backed by Redis.
type RenderCounter interface {
	Ping(ctx context.Context) error
	RenderCount(ctx context.Context, username string) (int64, error)
}

// Server represents the server configuration with a router, the card service, an optional render tally and a logger.
type Server struct {
	router      *gin.Engine
	cardService CardRenderer
	counter     RenderCounter
	logger      *logrus.Logger
}

// NewServer initializes a new server. counter may be nil, in which case the tally routes are not registered.
func NewServer(cardService CardRenderer, counter RenderCounter, logger *logrus.Logger) *Server {
	router := gin.Default()

	server := &Server{
		router:      router,
		cardService: cardService,
		counter:     counter,
		logger:      logger,
	}
	server.setupRoutes()

	return server
}

// setupRoutes defines all the routes for the server.
func (s *Server) setupRoutes() {
	s.router.GET("/ping", s.handlePing)
	s.router.GET("/api/", s.handleGetCard)
	s.router.GET("/api/:username", s.handleGetCard)

	if s.counter != nil {
		s.router.GET("/redis-ping", s.handleRedisPing)
		s.router.GET("/stats/:username", s.handleGetRenderCount)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// handlePing is a handler for the API health check route.
func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// handleRedisPing is a handler for the Redis health check route.
func (s *Server) handleRedisPing(c *gin.Context) {
	err := s.counter.Ping(c.Request.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to ping Redis")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ping Redis"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// handleGetCard renders the profile card of a Chess.com player as a PNG.
func (s *Server) handleGetCard(c *gin.Context) {
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		c.String(http.StatusBadRequest, "Username not specified")
		return
	}

	size := card.ResolveSize(c.Query("width"), c.Query("height"))

	png, err := s.cardService.RenderCard(c.Request.Context(), username, size)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameRequired):
			c.String(http.StatusBadRequest, "Username not specified")
		case errors.Is(err, model.ErrPlayerNotFound):
			c.String(http.StatusNotFound, "User '%s' not found or API error", username)
		default:
			s.logger.WithError(err).WithField("username", username).Error("Error generating image")
			c.String(http.StatusInternalServerError, "Error generating image")
		}
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// handleGetRenderCount reports how many cards were rendered for a player.
func (s *Server) handleGetRenderCount(c *gin.Context) {
	username := c.Param("username")

	count, err := s.counter.RenderCount(c.Request.Context(), username)
	if err != nil {
		s.logger.WithError(err).WithField("username", username).Error("Failed to get render count")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get render count"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username": username,
		"renders":  count,
	})
}

// Run starts the HTTP server on a specific address.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}
