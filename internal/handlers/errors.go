package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/ledger-posting/internal/apperrors"
	"github.com/SscSPs/ledger-posting/internal/core/domain"
	"github.com/SscSPs/ledger-posting/internal/middleware"
)

// respondError maps a service error onto a status code. Business-rule failures are
// client errors; anything unrecognised is logged and reported as a failure to perform action.
func respondError(c *gin.Context, err error, action string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var perr *domain.PostingError
	if errors.As(err, &perr) {
		logger.Warn("Posting rule violated", slog.String("code", string(perr.Code)), slog.String("error", perr.Error()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": perr.Message, "errors": domain.PostingErrors{perr}})
		return
	}

	var appErr *apperrors.AppError
	switch {
	case errors.Is(err, apperrors.ErrRejected):
		logger.Warn("Rejected document submitted for posting", slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Invalid request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Resource not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		logger.Warn("Conflicting request", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &appErr) && appErr.Code >= 400 && appErr.Code < 500:
		logger.Warn("Request failed", slog.Int("status", appErr.Code), slog.String("error", err.Error()))
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
	default:
		logger.Error("Failed to "+action, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

// actorFromContext reads the actor set by ActorMiddleware, answering 401 when it is absent.
func actorFromContext(c *gin.Context) (string, domain.UserWorkplaceRole, bool) {
	actorID, role, ok := middleware.GetActorFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", "", false
	}
	return actorID, role, true
}

// requirePostingRole answers 403 for roles that may only read.
func requirePostingRole(c *gin.Context, role domain.UserWorkplaceRole) bool {
	if role.CanPost() {
		return true
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Role may not post", slog.String("role", string(role)))
	c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to post in this workplace"})
	return false
}
