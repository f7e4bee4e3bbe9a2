package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/dbroute/internal/core"
)

// withClient attaches the caller's IP and User-Agent so the ingest log
// can attribute the upload.
func withClient(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithClient(ctx, clientIP(r), r.UserAgent())
}
