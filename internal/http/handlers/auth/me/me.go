// Package me отдаёт аккаунт владельца токена.
package me

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/banner-generator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/banner-generator/internal/http/response"
)

// Handler обрабатывает GET /auth/me.
type Handler struct {
	log *slog.Logger
}

// New создаёт обработчик.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Текущий аккаунт
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=response.AccountView}
// @Failure 401 {object} response.ErrorResponse "Нет или неверный токен"
// @Router /auth/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.me"

	account, ok := middlewarectx.AccountFromContext(r.Context())
	if !ok {
		h.log.Error("account missing in context",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("Not authenticated"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(response.NewAccountView(account)))
}
