package http

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	loggerContextKey    contextKey = "logger"
	meetingIDContextKey contextKey = "meeting_id"
)

// ContextWithLogger returns a derived context carrying the request logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerContextKey, logger)
}

// LoggerFromContext extracts the request logger from context if available.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(loggerContextKey).(*slog.Logger)
	return logger
}

// ContextWithMeetingID injects the meeting identifier resolved from the request path.
func ContextWithMeetingID(ctx context.Context, meetingID int64) context.Context {
	return context.WithValue(ctx, meetingIDContextKey, meetingID)
}

// MeetingIDFromContext extracts a meeting identifier previously associated with the context.
func MeetingIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(meetingIDContextKey).(int64)
	return id, ok
}
