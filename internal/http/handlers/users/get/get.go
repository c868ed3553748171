// Package get отдаёт профиль текущего аккаунта, перечитанный из хранилища.
package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/banner-generator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/banner-generator/internal/http/response"
	"github.com/magabrotheeeer/banner-generator/internal/models"
)

// Service читает аккаунт по ID.
type Service interface {
	Get(ctx context.Context, id string) (*models.Account, error)
}

// Handler обрабатывает GET /users/me.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт обработчик.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Профиль пользователя
// @Tags Users
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=response.AccountView}
// @Failure 401 {object} response.ErrorResponse "Нет или неверный токен"
// @Failure 404 {object} response.ErrorResponse "Аккаунт не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /users/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.get"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	current, ok := middlewarectx.AccountFromContext(r.Context())
	if !ok {
		log.Error("account missing in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("Not authenticated"))
		return
	}

	account, err := h.service.Get(r.Context(), current.ID)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(response.NewAccountView(account)))
}
