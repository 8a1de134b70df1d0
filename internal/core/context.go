package core

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	ctxKeyIPAddress contextKey = "client_ip"
	ctxKeyLogger    contextKey = "logger"
)

// ContextWithIPAddress adds the client IP to context for pipeline logging.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// GetIPAddressFromContext extracts the client IP from context.
func GetIPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

// ContextWithLogger attaches a request-scoped logger. The web layer uses it
// to carry the request id into pipeline logs.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKeyLogger, logger)
}

// loggerFrom returns the context logger, falling back to slog.Default.
func loggerFrom(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if l, ok := ctx.Value(ctxKeyLogger).(*slog.Logger); ok && l != nil {
		logger = l
	}
	if ip := GetIPAddressFromContext(ctx); ip != "" {
		logger = logger.With("client_ip", ip)
	}
	return logger
}
