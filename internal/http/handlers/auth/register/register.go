// Package register реализует HTTP-обработчик регистрации нового аккаунта.
//
// Тело запроса декодируется и валидируется, затем регистрация делегируется
// сервису аутентификации. При успехе возвращается созданный аккаунт без хэша пароля.
package register

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/banner-generator/internal/http/response"
	"github.com/magabrotheeeer/banner-generator/internal/lib/sl"
	"github.com/magabrotheeeer/banner-generator/internal/models"
)

// Request входные данные регистрации.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"full_name" validate:"required,min=2,max=120"`
}

// Service описывает регистрацию аккаунта.
type Service interface {
	Register(ctx context.Context, email, password, fullName string) (*models.Account, error)
}

// Handler обрабатывает POST /auth/register.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт обработчик регистрации.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Регистрация аккаунта
// @Description Создаёт аккаунт на бесплатном плане. Пароль должен содержать строчную, заглавную букву и цифру.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные нового аккаунта"
// @Success 200 {object} response.Response{data=response.AccountView} "Аккаунт создан"
// @Failure 400 {object} response.ErrorResponse "Некорректные данные или почта занята"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	req.FullName = models.NormalizeFullName(req.FullName)

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		response.RenderValidation(w, r, err)
		return
	}

	account, err := h.service.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	log.Info("account registered", slog.String("account_id", account.ID))
	render.JSON(w, r, response.StatusOKWithData(response.NewAccountView(account)))
}
