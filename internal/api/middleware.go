package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/garyfan1/timegate/internal/auth"
	"github.com/garyfan1/timegate/internal/logger"
	"github.com/garyfan1/timegate/internal/observability"
)

// tokenHeader is the request header carrying the bearer token.
const tokenHeader = "jwt_token"

// accountKey is a private context key type for the verified account id.
type accountKey struct{}

// accountFromContext returns the account id placed by the authenticate
// middleware. Handlers behind the middleware can rely on it being set.
func accountFromContext(ctx context.Context) string {
	id, _ := ctx.Value(accountKey{}).(string)
	return id
}

// authenticate verifies the bearer token and resolves the calling account.
// Each verification failure mode maps to its own rejected-request response;
// none of them reach the handlers.
func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID, err := a.tokens.Verify(r.Header.Get(tokenHeader))
		if err != nil {
			var msg string
			switch {
			case errors.Is(err, auth.ErrMissingToken):
				msg = "jwt token not provided"
			case errors.Is(err, auth.ErrTokenExpired):
				msg = "jwt token expired"
			case errors.Is(err, auth.ErrBadSignature):
				msg = "invalid jwt token"
			default:
				msg = "malformed jwt token"
			}
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, MessageResponse{Msg: msg})
			return
		}

		ctx := context.WithValue(r.Context(), accountKey{}, accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLogger returns a middleware that injects a request-scoped logger
// derived from base into the context and logs each completed request. It
// integrates with chi's RequestID middleware, and handlers pick the logger
// up via logger.FromContext.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLogger := base.With(
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
			ctx := logger.WithContext(r.Context(), reqLogger)

			// Wrap the ResponseWriter to capture the status code.
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(ctx))

			duration := time.Since(start)
			status := ww.Status()

			observability.HTTPReqDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration.Seconds())
			observability.HTTPReqTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(status)).Inc()

			// Info for success, Warn for 4xx, Error for 5xx.
			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelError
			} else if status >= 400 {
				level = slog.LevelWarn
			}

			reqLogger.Log(ctx, level, "HTTP request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration", duration.String(),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
