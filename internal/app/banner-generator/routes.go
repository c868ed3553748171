// Package bannergenerator собирает HTTP-приложение: маршруты, middleware и зависимости.
package bannergenerator

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/banner-generator/internal/http/handlers/ai/generateimage"
	"github.com/magabrotheeeer/banner-generator/internal/http/handlers/ai/generatetext"
	"github.com/magabrotheeeer/banner-generator/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/banner-generator/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/banner-generator/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/banner-generator/internal/http/handlers/health"
	"github.com/magabrotheeeer/banner-generator/internal/http/handlers/payment/createorder"
	"github.com/magabrotheeeer/banner-generator/internal/http/handlers/payment/verify"
	"github.com/magabrotheeeer/banner-generator/internal/http/handlers/social/authurl"
	"github.com/magabrotheeeer/banner-generator/internal/http/handlers/social/callback"
	"github.com/magabrotheeeer/banner-generator/internal/http/handlers/social/publish"
	"github.com/magabrotheeeer/banner-generator/internal/http/handlers/users/get"
	"github.com/magabrotheeeer/banner-generator/internal/http/handlers/users/update"
	"github.com/magabrotheeeer/banner-generator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/banner-generator/internal/integrations/social"
	"github.com/magabrotheeeer/banner-generator/internal/integrations/textgen"
	"github.com/magabrotheeeer/banner-generator/internal/metrics"
	"github.com/magabrotheeeer/banner-generator/internal/ratelimit"
	"github.com/magabrotheeeer/banner-generator/internal/services/auth"
	"github.com/magabrotheeeer/banner-generator/internal/services/payment"
	"github.com/magabrotheeeer/banner-generator/internal/services/user"
)

// Имена маршрутов для счётчиков ограничения частоты.
const (
	RouteLogin    = "login"
	RouteRegister = "register"
)

// Dependencies всё, что нужно маршрутам.
type Dependencies struct {
	Auth      *auth.Service
	Users     *user.Service
	Payments  *payment.Service
	Generator *textgen.Stub
	Social    *social.Client
	Limiter   middlewarectx.Limiter
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	DB        health.Pinger

	LoginRule     ratelimit.Rule
	RegisterRule  ratelimit.Rule
	RazorpayKeyID string
	CORSOrigins   []string
}

// NewRouter регистрирует все маршруты приложения.
func NewRouter(logger *slog.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)
	if len(deps.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   deps.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.New(logger, deps.DB).ServeHTTP)

		// Открытые конечные точки
		r.With(middlewarectx.RateLimitMiddleware(logger, deps.Limiter, deps.Metrics, RouteRegister, deps.RegisterRule)).
			Post("/auth/register", register.New(logger, deps.Auth).ServeHTTP)
		r.With(middlewarectx.RateLimitMiddleware(logger, deps.Limiter, deps.Metrics, RouteLogin, deps.LoginRule)).
			Post("/auth/login", login.New(logger, deps.Auth).ServeHTTP)
		r.Get("/social/auth", authurl.New(deps.Social).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(deps.Auth, logger))

			r.Get("/auth/me", me.New(logger).ServeHTTP)
			r.Get("/users/me", get.New(logger, deps.Users).ServeHTTP)
			r.Put("/users/me", update.New(logger, deps.Users).ServeHTTP)

			r.Post("/payment/create-order", createorder.New(logger, deps.Payments, deps.RazorpayKeyID).ServeHTTP)
			r.Post("/payment/verify", verify.New(logger, deps.Payments).ServeHTTP)

			r.Post("/ai/generate-text", generatetext.New(logger, deps.Generator).ServeHTTP)
			r.Post("/ai/generate-image", generateimage.New(logger, deps.Generator).ServeHTTP)

			r.Get("/social/callback", callback.New(logger, deps.Social, deps.Users).ServeHTTP)
			r.Post("/social/publish", publish.New(logger, deps.Social).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.WrapHandler)

	return r
}
