package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/ledger-posting/internal/core/domain"
	"github.com/SscSPs/ledger-posting/internal/middleware"
)

// BaseService provides common functionality for all services
type BaseService struct{}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.GetLogger(ctx).Error(msg, args...)
}

// LogWarn logs a warning with consistent formatting
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Warn(msg, keyvals...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// LogRejection logs a rejected validation with the error codes that caused it.
func (s *BaseService) LogRejection(ctx context.Context, result domain.ValidationResult, keyvals ...any) {
	codes := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		codes = append(codes, string(e.Code))
	}
	args := make([]any, 0, len(keyvals)+3)
	args = append(args,
		slog.String("stage", string(result.Stage)),
		slog.Any("error_codes", codes),
		slog.Int("error_count", len(result.Errors)),
	)
	args = append(args, keyvals...)
	s.GetLogger(ctx).Warn("Posting rejected", args...)
}
