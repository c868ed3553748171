// Package login реализует HTTP-обработчик выдачи токена доступа.
//
// Принимает форму OAuth2 password grant (username, password), а также JSON с теми же
// полями. Любой отказ по учётным данным отвечает 400 с одинаковым текстом, чтобы
// ответ не выдавал, существует ли аккаунт.
package login

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/banner-generator/internal/http/response"
	"github.com/magabrotheeeer/banner-generator/internal/lib/apperr"
	"github.com/magabrotheeeer/banner-generator/internal/lib/sl"
	"github.com/magabrotheeeer/banner-generator/internal/services/auth"
)

// Request учётные данные. Username это почта аккаунта.
type Request struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Service описывает вход по почте и паролю.
type Service interface {
	Login(ctx context.Context, email, password string) (*auth.Token, error)
}

// Handler обрабатывает POST /auth/login.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт обработчик входа.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Вход
// @Description Проверяет почту и пароль и выдаёт bearer-токен.
// @Tags Auth
// @Accept  x-www-form-urlencoded
// @Accept  json
// @Produce  json
// @Param username formData string true "Почта"
// @Param password formData string true "Пароль"
// @Success 200 {object} auth.Token "Токен доступа"
// @Failure 400 {object} response.ErrorResponse "Неверная почта или пароль"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	req, err := decode(r)
	if err != nil {
		log.Info("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err = h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		response.RenderValidation(w, r, err)
		return
	}

	token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, apperr.ErrUnauthorized) {
		log.Info("login rejected")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(apperr.PublicMessage(err)))
		return
	}
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	log.Info("token issued")
	render.JSON(w, r, token)
}

func decode(r *http.Request) (Request, error) {
	var req Request
	if render.GetRequestContentType(r) == render.ContentTypeJSON {
		err := render.DecodeJSON(r.Body, &req)
		return req, err
	}
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Username = r.PostForm.Get("username")
	req.Password = r.PostForm.Get("password")
	return req, nil
}
