package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/biblioteca/internal/core"
)

// WithRequestMetadata copies the client address and User-Agent into ctx for import logs.
// RemoteAddr has already been resolved by TrustedRealIP.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithClientIP(ctx, clientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}
