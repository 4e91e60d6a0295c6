// Package middleware wraps the API router with the cross-cutting layers
// every request passes through:
//
//	RequestID → access log → panic recovery → CORS → router
//
// CORS and recovery come from gorilla/handlers; the access log is
// gorilla's CustomLoggingHandler with a formatter that writes to slog
// instead of Apache log lines.
package middleware

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
)

// RequestIDHeader carries the per-request identifier in both directions.
const RequestIDHeader = "X-Request-ID"

type ctxKey struct{}

// Wrap applies the full chain to h. allowedOrigins feeds the CORS layer.
func Wrap(h http.Handler, allowedOrigins []string) http.Handler {
	h = CORS(allowedOrigins)(h)
	h = Recover(h)
	h = AccessLog(h)
	return RequestID(h)
}

// RequestID makes sure every request has an X-Request-ID. A client-sent
// value is kept; otherwise a new UUID is generated. The id is echoed on
// the response and stored in the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// RequestIDFrom returns the id RequestID stored in ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// AccessLog logs one line per completed request.
func AccessLog(next http.Handler) http.Handler {
	return handlers.CustomLoggingHandler(io.Discard, next, slogFormatter)
}

func slogFormatter(_ io.Writer, p handlers.LogFormatterParams) {
	level := slog.LevelInfo
	if p.StatusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(p.Request.Context(), level, "request",
		slog.String("method", p.Request.Method),
		slog.String("path", p.URL.Path),
		slog.Int("status", p.StatusCode),
		slog.Int("size", p.Size),
		slog.Duration("duration", time.Since(p.TimeStamp)),
		slog.String("request_id", p.Request.Header.Get(RequestIDHeader)),
	)
}

// Recover turns a panic in a handler into a 500 and logs it.
func Recover(next http.Handler) http.Handler {
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
		handlers.PrintRecoveryStack(false),
	)(next)
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...any) {
	slog.Error("panic recovered",
		slog.String("panic", fmt.Sprint(v...)),
		slog.String("stack", string(debug.Stack())),
	)
}

// CORS allows the configured browser origins to call the API.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", RequestIDHeader}),
		handlers.ExposedHeaders([]string{"Location", RequestIDHeader}),
	)
}
