// Package generateimage отдаёт ссылку на фон для баннера.
package generateimage

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

// Request описание желаемого изображения.
type Request struct {
	Prompt string `json:"prompt" validate:"required,max=500"`
}

// Generator подбирает изображение.
type Generator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Handler обрабатывает POST /ai/generate-image.
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
// @Summary Генерация фона
// @Tags AI
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Описание изображения"
// @Success 200 {object} response.Response{data=map[string]string}
// @Failure 400 {object} response.ErrorResponse "Некорректные данные"
// @Router /ai/generate-image [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ai.generateimage"

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

	url, err := h.generator.GenerateImage(r.Context(), req.Prompt)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]string{"url": url}))
}
