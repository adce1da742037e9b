// Package middleware provides HTTP middleware for the recipe API: request
// logging, trusted proxy handling, admin API keys and bearer-token identity.
package middleware

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/recipebox/internal/logging"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Logger logs one line per request through the request-scoped logger, so
// each entry carries chi's request_id.
//
// Fields: method, path, status, bytes, duration_ms, ip, user_agent, and
// user_id when the request carried a valid bearer token.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		// Identity runs later in the chain and stores the user here.
		slot := &userSlot{}
		r = r.WithContext(withUserSlot(r.Context(), slot))

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		}
		if slot.user.ID != "" {
			attrs = append(attrs, "user_id", slot.user.ID)
		}

		logger := logging.FromContext(r.Context())
		switch {
		case status >= 500:
			logger.Error("request", attrs...)
		case status >= 400:
			logger.Warn("request", attrs...)
		default:
			logger.Info("request", attrs...)
		}
	})
}
