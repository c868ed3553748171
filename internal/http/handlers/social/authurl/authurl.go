// Package authurl отдаёт адрес страницы согласия соцсети.
package authurl

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/banner-generator/internal/http/response"
)

// URLProvider строит адрес авторизации.
type URLProvider interface {
	AuthURL() string
}

// Handler обрабатывает GET /social/auth.
type Handler struct {
	provider URLProvider
}

// New создаёт обработчик.
func New(provider URLProvider) *Handler {
	return &Handler{provider: provider}
}

// ServeHTTP godoc
// @Summary Адрес авторизации LinkedIn
// @Tags Social
// @Produce  json
// @Success 200 {object} response.Response{data=map[string]string}
// @Router /social/auth [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.StatusOKWithData(map[string]string{"url": h.provider.AuthURL()}))
}
