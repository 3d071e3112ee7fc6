package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/apperrors"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/services"
)

// AttendanceHandler exposes the attendance ledger over HTTP
type AttendanceHandler struct {
	attendance *services.AttendanceService
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(attendance *services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// RSVPBody carries the requested RSVP status
type RSVPBody struct {
	Status string `json:"status" binding:"required"`
}

// RSVP handles POST /events/:id/rsvp
func (h *AttendanceHandler) RSVP(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.Validation("invalid event id"))
		return
	}

	var body RSVPBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperrors.Validation("invalid request payload"))
		return
	}

	record, err := h.attendance.RSVP(c.Request.Context(), actorFrom(c), eventID, body.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// CheckIn handles POST /events/:id/checkin
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.Validation("invalid event id"))
		return
	}

	record, err := h.attendance.CheckIn(c.Request.Context(), actorFrom(c), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// FeedbackBody carries post-event feedback
type FeedbackBody struct {
	Rating    int     `json:"rating" binding:"required"`
	Comment   *string `json:"comment"`
	Anonymous bool    `json:"anonymous"`
}

// Feedback handles POST /events/:id/feedback
func (h *AttendanceHandler) Feedback(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.Validation("invalid event id"))
		return
	}

	var body FeedbackBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperrors.Validation("invalid request payload"))
		return
	}

	record, err := h.attendance.RecordFeedback(c.Request.Context(), actorFrom(c), eventID, body.Rating, body.Comment, body.Anonymous)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// List handles GET /events/:id/attendance
func (h *AttendanceHandler) List(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.Validation("invalid event id"))
		return
	}

	records, err := h.attendance.ListForEvent(c.Request.Context(), actorFrom(c), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"attendance": records})
}

// MyStatus handles GET /events/:id/attendance/me
func (h *AttendanceHandler) MyStatus(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.Validation("invalid event id"))
		return
	}

	record, err := h.attendance.MyStatus(c.Request.Context(), actorFrom(c), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// RegisterRoutes registers the handler's routes
func (h *AttendanceHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/events/:id/rsvp", h.RSVP)
	group.POST("/events/:id/checkin", h.CheckIn)
	group.POST("/events/:id/feedback", h.Feedback)
	group.GET("/events/:id/attendance", h.List)
	group.GET("/events/:id/attendance/me", h.MyStatus)
}
