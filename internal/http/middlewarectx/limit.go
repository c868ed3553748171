package middlewarectx

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/banner-generator/internal/http/response"
	"github.com/magabrotheeeer/banner-generator/internal/lib/sl"
	"github.com/magabrotheeeer/banner-generator/internal/ratelimit"
)

// Limiter решает, пропускать ли запрос.
type Limiter interface {
	Allow(ctx context.Context, clientKey, route string, rule ratelimit.Rule) (ratelimit.Decision, error)
}

// RateLimitMetrics учитывает отклонённые запросы.
type RateLimitMetrics interface {
	RateLimited(route string)
}

// RateLimitMiddleware ограничивает число запросов клиента к маршруту route по правилу rule.
// Клиент определяется по IP (после middleware.RealIP). При отказе хранилища
// счётчиков запрос пропускается.
func RateLimitMiddleware(log *slog.Logger, limiter Limiter, m RateLimitMetrics, route string, rule ratelimit.Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RateLimitMiddleware"

			decision, err := limiter.Allow(r.Context(), clientKey(r), route, rule)
			if err != nil {
				log.Warn("rate limiter unavailable, request allowed",
					slog.String("op", op),
					slog.String("route", route),
					sl.Err(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

			if !decision.Allowed {
				m.RateLimited(route)
				log.Warn("too many requests",
					slog.String("op", op),
					slog.String("route", route),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(decision.RetryAfter)))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("Too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
