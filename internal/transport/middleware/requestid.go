package middleware

import (
	"context"
	"net/http"

	"github.com/frahmantamala/campaign-portal/pkg/logger"
	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

// RequestID reuses the caller's X-Request-ID (or X-Trace-ID) or mints one,
// then echoes it on the response. The request logger carries it along with
// the OpenTelemetry trace id when a span is active.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" {
			reqID = r.Header.Get(HeaderTraceID)
		}
		if reqID == "" {
			reqID = uuid.NewString()
		}

		// chi's GetReqID reads this key
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, reqID)
		ctx = logger.With(ctx, "request_id", reqID)
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			ctx = logger.With(ctx, "trace_id", sc.TraceID().String())
		}

		w.Header().Set(HeaderRequestID, reqID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
