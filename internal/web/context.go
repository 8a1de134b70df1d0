package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/deptdata/internal/core"
	"github.com/JonMunkholm/deptdata/internal/logging"
)

// WithRequestMetadata carries the client IP and the request-scoped logger
// into the pipeline.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, clientIP(r))
	ctx = core.ContextWithLogger(ctx, logging.FromContext(r.Context()))
	return ctx
}
