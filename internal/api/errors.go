package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/apperrors"
)

// respondError maps a taxonomy error to its HTTP status and a stable
// JSON body. Anything that is not a domain failure becomes a generic
// 500 with no internal detail.
func respondError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)

	if kind == apperrors.KindInternal {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Internal error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "an unexpected error occurred",
			"kind":  kind,
		})
		return
	}

	status := http.StatusInternalServerError
	switch kind {
	case apperrors.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperrors.KindForbidden:
		status = http.StatusForbidden
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindValidation:
		status = http.StatusBadRequest
	case apperrors.KindInvalidState,
		apperrors.KindEventFull,
		apperrors.KindDuplicateRequest,
		apperrors.KindWindowClosed:
		status = http.StatusConflict
	}

	message := "an unexpected error occurred"
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}

	c.JSON(status, gin.H{"error": message, "kind": kind})
}
