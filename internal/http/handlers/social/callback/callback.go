// Package callback завершает привязку соцсети: меняет код на токен и сохраняет его в аккаунте.
package callback

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/banner-generator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/banner-generator/internal/http/response"
	"github.com/magabrotheeeer/banner-generator/internal/integrations/social"
	"github.com/magabrotheeeer/banner-generator/internal/lib/sl"
	"github.com/magabrotheeeer/banner-generator/internal/models"
	"github.com/magabrotheeeer/banner-generator/internal/services/user"
)

// Exchanger меняет код авторизации на токен.
type Exchanger interface {
	ExchangeCode(ctx context.Context, code string) (social.Token, error)
}

// AccountUpdater сохраняет токен в аккаунте.
type AccountUpdater interface {
	Update(ctx context.Context, id string, in user.UpdateInput) (*models.Account, error)
}

// Handler обрабатывает GET /social/callback?code=.
type Handler struct {
	log       *slog.Logger
	exchanger Exchanger
	accounts  AccountUpdater
}

// New создаёт обработчик.
func New(log *slog.Logger, exchanger Exchanger, accounts AccountUpdater) *Handler {
	return &Handler{
		log:       log,
		exchanger: exchanger,
		accounts:  accounts,
	}
}

// ServeHTTP godoc
// @Summary Привязка LinkedIn
// @Tags Social
// @Produce  json
// @Security BearerAuth
// @Param code query string true "Код авторизации"
// @Success 200 {object} response.Response{data=map[string]bool}
// @Failure 400 {object} response.ErrorResponse "Нет кода"
// @Failure 401 {object} response.ErrorResponse "Нет или неверный токен"
// @Router /social/callback [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.social.callback"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	account, ok := middlewarectx.AccountFromContext(r.Context())
	if !ok {
		log.Error("account missing in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("Not authenticated"))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("code is required"))
		return
	}

	token, err := h.exchanger.ExchangeCode(r.Context(), code)
	if err != nil {
		log.Error("failed to exchange code", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("could not connect LinkedIn"))
		return
	}

	if _, err = h.accounts.Update(r.Context(), account.ID, user.UpdateInput{SocialToken: &token.AccessToken}); err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	log.Info("social account linked", slog.String("account_id", account.ID), slog.String("profile_id", token.ProfileID))
	render.JSON(w, r, response.StatusOKWithData(map[string]bool{"connected": true}))
}
