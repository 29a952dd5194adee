package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SscSPs/ledger-posting/internal/core/domain"
	"github.com/gin-gonic/gin"
)

const (
	actorIDKey   = contextKey("actorID")
	actorRoleKey = contextKey("actorRole")
)

// Headers carrying the acting user. Identity is established upstream of this service.
const (
	ActorIDHeader   = "X-Actor-ID"
	ActorRoleHeader = "X-Actor-Role"
)

// ActorMiddleware copies the actor headers into the request context and enriches the
// request logger with the actor ID. Requests without an actor ID are rejected.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		actorID := c.GetHeader(ActorIDHeader)
		if actorID == "" {
			logger.Warn("Actor header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ActorIDHeader + " header required"})
			return
		}
		role := domain.UserWorkplaceRole(c.GetHeader(ActorRoleHeader))
		if role == "" {
			role = domain.RoleMember
		}

		ctx := context.WithValue(c.Request.Context(), actorIDKey, actorID)
		ctx = context.WithValue(ctx, actorRoleKey, role)
		ctx = WithLogger(ctx, logger.With(slog.String("actor_id", actorID)))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetActorFromContext retrieves the acting user ID and role from the Gin request context.
// It returns false when ActorMiddleware did not run.
func GetActorFromContext(c *gin.Context) (string, domain.UserWorkplaceRole, bool) {
	actorID, ok := c.Request.Context().Value(actorIDKey).(string)
	if !ok || actorID == "" {
		return "", "", false
	}
	role, _ := c.Request.Context().Value(actorRoleKey).(domain.UserWorkplaceRole)
	return actorID, role, true
}
