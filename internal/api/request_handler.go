package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/apperrors"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/services"
)

// RequestHandler exposes the event request ledger over HTTP
type RequestHandler struct {
	requests *services.RequestService
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(requests *services.RequestService) *RequestHandler {
	return &RequestHandler{requests: requests}
}

// SubmitRequestBody is the JSON payload for a new event request
type SubmitRequestBody struct {
	Type              string     `json:"type" binding:"required"`
	EventID           *uuid.UUID `json:"event_id"`
	Title             *string    `json:"title"`
	Description       *string    `json:"description"`
	ProposedStart     *time.Time `json:"proposed_start"`
	ProposedEnd       *time.Time `json:"proposed_end"`
	LocationName      *string    `json:"location_name"`
	ExpectedAttendees *int       `json:"expected_attendees"`
	FormSubmissionID  *uuid.UUID `json:"form_submission_id"`
}

// Submit handles POST /event-requests
func (h *RequestHandler) Submit(c *gin.Context) {
	var body SubmitRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperrors.Validation("invalid request payload"))
		return
	}

	request, err := h.requests.Submit(c.Request.Context(), actorFrom(c), services.SubmitRequestInput{
		Type:              body.Type,
		EventID:           body.EventID,
		Title:             body.Title,
		Description:       body.Description,
		ProposedStart:     body.ProposedStart,
		ProposedEnd:       body.ProposedEnd,
		LocationName:      body.LocationName,
		ExpectedAttendees: body.ExpectedAttendees,
		FormSubmissionID:  body.FormSubmissionID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

// Approve handles POST /event-requests/:id/approve
func (h *RequestHandler) Approve(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.Validation("invalid request id"))
		return
	}

	request, err := h.requests.Approve(c.Request.Context(), actorFrom(c), requestID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// RejectBody carries the mandatory rejection reason
type RejectBody struct {
	Reason string `json:"reason"`
}

// Reject handles POST /event-requests/:id/reject
func (h *RequestHandler) Reject(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.Validation("invalid request id"))
		return
	}

	var body RejectBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperrors.Validation("invalid request payload"))
		return
	}

	request, err := h.requests.Reject(c.Request.Context(), actorFrom(c), requestID, body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// Cancel handles POST /event-requests/:id/cancel
func (h *RequestHandler) Cancel(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.Validation("invalid request id"))
		return
	}

	request, err := h.requests.Cancel(c.Request.Context(), actorFrom(c), requestID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// Get handles GET /event-requests/:id
func (h *RequestHandler) Get(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.Validation("invalid request id"))
		return
	}

	request, err := h.requests.GetByID(c.Request.Context(), actorFrom(c), requestID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// History handles GET /event-requests/:id/audit
func (h *RequestHandler) History(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.Validation("invalid request id"))
		return
	}

	entries, err := h.requests.History(c.Request.Context(), actorFrom(c), requestID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// ListPending handles GET /event-requests/pending
func (h *RequestHandler) ListPending(c *gin.Context) {
	requests, err := h.requests.ListPending(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// ListByFacility handles GET /facilities/:id/event-requests
func (h *RequestHandler) ListByFacility(c *gin.Context) {
	facilityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.Validation("invalid facility id"))
		return
	}

	requests, err := h.requests.ListByFacility(c.Request.Context(), actorFrom(c), facilityID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// RegisterRoutes registers the handler's routes
func (h *RequestHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/event-requests", h.Submit)
	group.GET("/event-requests/pending", h.ListPending)
	group.GET("/event-requests/:id", h.Get)
	group.POST("/event-requests/:id/approve", h.Approve)
	group.POST("/event-requests/:id/reject", h.Reject)
	group.POST("/event-requests/:id/cancel", h.Cancel)
	group.GET("/event-requests/:id/audit", h.History)
	group.GET("/facilities/:id/event-requests", h.ListByFacility)
}
