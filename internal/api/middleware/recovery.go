package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mcoot/diceduel/internal/api/apierr"
	"github.com/mcoot/diceduel/internal/middleware"
	"github.com/mcoot/diceduel/internal/notify"
)

// Alerter forwards server failures to the operator channel
type Alerter interface {
	Alert(ctx context.Context, alert notify.Alert)
}

// Recovery creates panic recovery middleware for the API.
// Panics produce a JSON 500 and an admin alert.
func Recovery(logger *slog.Logger, alerter Alerter) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, r *http.Request, err any) {
		if alerter != nil {
			alerter.Alert(r.Context(), notify.Alert{
				RequestID: middleware.GetRequestID(r.Context()),
				Method:    r.Method,
				Path:      r.URL.Path,
				Status:    http.StatusInternalServerError,
				Message:   fmt.Sprintf("panic: %v", err),
			})
		}
		apierr.WriteError(w, apierr.NewInternalError())
	})
}

// Alert raises an admin alert for every 5xx response
func Alert(alerter Alerter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &middleware.ResponseWriter{ResponseWriter: w}
			next.ServeHTTP(wrapped, r)

			if wrapped.Status() >= http.StatusInternalServerError {
				alerter.Alert(r.Context(), notify.Alert{
					RequestID: middleware.GetRequestID(r.Context()),
					Method:    r.Method,
					Path:      r.URL.Path,
					Status:    wrapped.Status(),
					Message:   fmt.Sprintf("request failed with HTTP %d", wrapped.Status()),
				})
			}
		})
	}
}
