package router

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/stacktrace"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// middlewareRecoverer turns a handler panic into a 500 and counts it.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func middlewareRecoverer(ins instrument.Instrumentation) Middleware {
	panics, err := ins.Meter("http.server").Int64Counter("http.server.panics",
		metric.WithDescription("Number of handler panics recovered"))
	if err != nil {
		slog.Error("failed to create http panic counter", "error", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				//nolint:err113,errorlint // sentinel compared by identity
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				route := matchedRoutePath(r)
				stack := debug.Stack()
				frames := stacktrace.InternalPaths(stack)

				attrs := []any{"method", r.Method, "path", route, "panic", rvr}
				if len(frames) > 0 {
					attrs = append(attrs, "stack", frames)
				} else {
					attrs = append(attrs, "stack", string(stack))
				}
				slog.ErrorContext(r.Context(), "recovered from handler panic", attrs...)

				if panics != nil {
					panics.Add(r.Context(), 1, metric.WithAttributes(
						semconv.HTTPRequestMethodKey.String(r.Method),
						semconv.HTTPRouteKey.String(route),
					))
				}

				writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
