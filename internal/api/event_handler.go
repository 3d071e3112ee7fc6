package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/apperrors"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/repositories"
)

// EventHandler exposes read-only event projections. Event management
// itself lives outside this service; these are the views the ledgers'
// callers need to pick a target.
type EventHandler struct {
	events *repositories.EventRepository
}

// NewEventHandler creates a new event handler
func NewEventHandler(events *repositories.EventRepository) *EventHandler {
	return &EventHandler{events: events}
}

// List handles GET /events
func (h *EventHandler) List(c *gin.Context) {
	events, err := h.events.ListPublished(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, apperrors.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// Get handles GET /events/:id
func (h *EventHandler) Get(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.Validation("invalid event id"))
		return
	}

	event, err := h.events.GetByID(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// RegisterRoutes registers the handler's routes
func (h *EventHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/events", h.List)
	group.GET("/events/:id", h.Get)
}
