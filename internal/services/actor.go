package services

import (
	"github.com/google/uuid"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/models"
)

// Actor is the authenticated caller of a ledger operation. There is no
// ambient session state anywhere in the core: every operation takes its
// actor explicitly.
type Actor struct {
	UserID     uuid.UUID
	Role       string
	FacilityID *uuid.UUID
}

// Valid reports whether the actor is authenticated at all
func (a Actor) Valid() bool {
	return a.UserID != uuid.Nil && a.Role != ""
}

// IsReviewer reports whether the actor may approve or reject requests
func (a Actor) IsReviewer() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleStaff
}

// IsFacility reports whether the actor belongs to a partner facility
func (a Actor) IsFacility() bool {
	return a.Role == models.RoleFacility && a.FacilityID != nil
}
