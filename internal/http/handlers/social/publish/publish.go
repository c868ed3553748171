// Package publish публикует баннер в привязанную соцсеть.
package publish

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/banner-generator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/banner-generator/internal/http/response"
	"github.com/magabrotheeeer/banner-generator/internal/integrations/social"
	"github.com/magabrotheeeer/banner-generator/internal/lib/sl"
)

// Publisher публикует пост.
type Publisher interface {
	Publish(ctx context.Context, accessToken string, post social.Post) (string, error)
}

// Handler обрабатывает POST /social/publish.
type Handler struct {
	log       *slog.Logger
	publisher Publisher
}

// New создаёт обработчик.
func New(log *slog.Logger, publisher Publisher) *Handler {
	return &Handler{
		log:       log,
		publisher: publisher,
	}
}

// ServeHTTP godoc
// @Summary Публикация в LinkedIn
// @Tags Social
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body social.Post true "Картинка и текст"
// @Success 200 {object} response.Response{data=map[string]string}
// @Failure 400 {object} response.ErrorResponse "LinkedIn не привязан"
// @Router /social/publish [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.social.publish"

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
	if account.SocialToken == nil || *account.SocialToken == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("LinkedIn not connected"))
		return
	}

	var post social.Post
	if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	postURL, err := h.publisher.Publish(r.Context(), *account.SocialToken, post)
	if err != nil {
		log.Error("failed to publish", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("could not publish to LinkedIn"))
		return
	}

	log.Info("banner published", slog.String("account_id", account.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]string{
		"status":   "published",
		"post_url": postURL,
	}))
}
