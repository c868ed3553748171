// Package middlewarectx содержит HTTP middleware для проверки токенов доступа
// и ограничения частоты запросов.
//
// JWTMiddleware проверяет наличие и валидность JWT токена в заголовке Authorization
// и в случае успеха добавляет аккаунт в контекст запроса.
// В случае ошибки проверки возвращает HTTP 401 Unauthorized.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/banner-generator/internal/http/response"
	"github.com/magabrotheeeer/banner-generator/internal/lib/apperr"
	"github.com/magabrotheeeer/banner-generator/internal/lib/sl"
	"github.com/magabrotheeeer/banner-generator/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// AccountKey ключ аккаунта в контексте.
const AccountKey Key = "account"

// Authenticator проверяет токен и возвращает владельца.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Account, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет Bearer-токен.
func JWTMiddleware(authenticator Authenticator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			tokenStr, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				log.Info("missing or invalid authorization header")
				w.Header().Set("WWW-Authenticate", "Bearer")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("Not authenticated"))
				return
			}

			account, err := authenticator.Authenticate(r.Context(), tokenStr)
			if err != nil {
				status := apperr.HTTPStatus(err)
				if status == http.StatusUnauthorized {
					w.Header().Set("WWW-Authenticate", "Bearer")
					log.Info("token rejected", sl.Err(err))
				} else {
					log.Error("failed to authenticate", sl.Err(err))
				}
				render.Status(r, status)
				render.JSON(w, r, response.Error(apperr.PublicMessage(err)))
				return
			}

			ctx := context.WithValue(r.Context(), AccountKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccountFromContext возвращает аккаунт, положенный JWTMiddleware.
func AccountFromContext(ctx context.Context) (*models.Account, bool) {
	account, ok := ctx.Value(AccountKey).(*models.Account)
	return account, ok && account != nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
