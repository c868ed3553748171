// Package update реализует частичное обновление профиля текущего аккаунта.
// Записываются только поля, присутствующие в теле запроса.
package update

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/banner-generator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/banner-generator/internal/http/response"
	"github.com/magabrotheeeer/banner-generator/internal/lib/sl"
	"github.com/magabrotheeeer/banner-generator/internal/models"
	"github.com/magabrotheeeer/banner-generator/internal/services/user"
)

// Request поля профиля. Отсутствующее поле не меняется.
type Request struct {
	FullName      *string `json:"full_name,omitempty" validate:"omitempty,min=2,max=120"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	IsPro         *bool   `json:"is_pro,omitempty"`
	LinkedInToken *string `json:"linkedin_token,omitempty"`
}

// Service обновляет профиль.
type Service interface {
	Update(ctx context.Context, id string, in user.UpdateInput) (*models.Account, error)
}

// Handler обрабатывает PUT /users/me.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт обработчик.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Обновление профиля
// @Description Меняет только переданные поля: full_name, email, is_pro, linkedin_token.
// @Tags Users
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Изменяемые поля"
// @Success 200 {object} response.Response{data=response.AccountView}
// @Failure 400 {object} response.ErrorResponse "Некорректные данные или почта занята"
// @Failure 401 {object} response.ErrorResponse "Нет или неверный токен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /users/me [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.update"

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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if req.FullName != nil {
		name := models.NormalizeFullName(*req.FullName)
		req.FullName = &name
	}

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		response.RenderValidation(w, r, err)
		return
	}

	account, err := h.service.Update(r.Context(), current.ID, user.UpdateInput{
		FullName:    req.FullName,
		Email:       req.Email,
		IsPro:       req.IsPro,
		SocialToken: req.LinkedInToken,
	})
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	log.Info("profile updated", slog.String("account_id", account.ID))
	render.JSON(w, r, response.StatusOKWithData(response.NewAccountView(account)))
}
