package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/config"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/repositories"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/services"
)

// Server represents the HTTP server
type Server struct {
	config     config.Config
	router     *gin.Engine
	httpServer *http.Server
}

// Services bundles everything the HTTP surface exposes
type Services struct {
	Requests      *services.RequestService
	Attendance    *services.AttendanceService
	Notifications *services.NotificationService
	Events        *repositories.EventRepository
}

// NewServer creates a new HTTP server
func NewServer(cfg config.Config, svcs Services) *Server {
	server := &Server{config: cfg}

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authed := router.Group("/", AuthRequired(cfg.JWTSecret))
	NewRequestHandler(svcs.Requests).RegisterRoutes(authed)
	NewAttendanceHandler(svcs.Attendance).RegisterRoutes(authed)
	NewNotificationHandler(svcs.Notifications).RegisterRoutes(authed)
	NewEventHandler(svcs.Events).RegisterRoutes(authed)

	server.router = router
	server.httpServer = &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router,
		ReadTimeout:  cfg.ServerTimeout,
		WriteTimeout: cfg.ServerTimeout,
	}

	return server
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.ServerAddress).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
