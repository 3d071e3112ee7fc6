package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/apperrors"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/services"
)

const actorContextKey = "actor"

// actorClaims are the token claims this service consumes. Tokens are
// minted by the identity service; this core only verifies them.
type actorClaims struct {
	jwt.RegisteredClaims
	Role       string  `json:"role"`
	FacilityID *string `json:"facility_id,omitempty"`
}

// AuthRequired validates the bearer token and stores the resolved
// actor on the request context. Every ledger route sits behind it.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
				"kind":  apperrors.KindUnauthorized,
			})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization header, expected 'Bearer {token}'",
				"kind":  apperrors.KindUnauthorized,
			})
			c.Abort()
			return
		}

		claims := &actorClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			log.Warn().Err(err).Msg("Rejected invalid token")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
				"kind":  apperrors.KindUnauthorized,
			})
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
				"kind":  apperrors.KindUnauthorized,
			})
			c.Abort()
			return
		}

		actor := services.Actor{UserID: userID, Role: claims.Role}
		if claims.FacilityID != nil {
			if facilityID, err := uuid.Parse(*claims.FacilityID); err == nil {
				actor.FacilityID = &facilityID
			}
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// actorFrom pulls the authenticated actor off the gin context
func actorFrom(c *gin.Context) services.Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(services.Actor); ok {
			return actor
		}
	}
	return services.Actor{}
}

// RequestLogger logs one structured line per handled request
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("Request handled")
	}
}
