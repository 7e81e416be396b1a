package httpingest

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tidebase/rowship/internal/ports"
)

type ctxKey int

const requestIDKey ctxKey = 0

// RequestIDHeader carries the request id on both requests and responses.
const RequestIDHeader = "X-Request-Id"

// requestID assigns each request a uuid unless the client brought one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFrom returns the request id stored in ctx, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type capture struct {
	http.ResponseWriter
	status int
}

func (c *capture) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

// accessLog logs request duration and status.
func accessLog(logger ports.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &capture{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(sw, r)

			logger.Info("request done",
				ports.String("request_id", RequestIDFrom(r.Context())),
				ports.String("method", r.Method),
				ports.String("path", r.URL.Path),
				ports.Int("status", sw.status),
				ports.Duration("elapsed", time.Since(start)))
		})
	}
}
