// Package generatetext отдаёт сгенерированный текст для баннера.
package generatetext

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
)

// Request тема и вид текста (headline, tagline, about).
type Request struct {
	Context string `json:"context" validate:"required,max=200"`
	Type    string `json:"type" validate:"required"`
}

// Generator генерирует текст.
type Generator interface {
	GenerateText(ctx context.Context, subject, kind string) (string, error)
}

// Handler обрабатывает POST /ai/generate-text.
type Handler struct {
	log       *slog.Logger
	generator Generator
	validate  *validator.Validate
}

// New создаёт обработчик.
func New(log *slog.Logger, generator Generator) *Handler {
	return &Handler{
		log:       log,
		generator: generator,
		validate:  validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Генерация текста
// @Tags AI
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Тема и вид текста"
// @Success 200 {object} response.Response{data=map[string]string}
// @Failure 400 {object} response.ErrorResponse "Некорректные данные"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /ai/generate-text [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ai.generatetext"

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
	if err := h.validate.Struct(req); err != nil {
		response.RenderValidation(w, r, err)
		return
	}

	text, err := h.generator.GenerateText(r.Context(), req.Context, req.Type)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]string{"result": text}))
}
