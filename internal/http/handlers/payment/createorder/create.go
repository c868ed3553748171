// Package createorder создаёт заказ на оплату pro-плана для текущего аккаунта.
package createorder

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

// Response данные, нужные клиенту для открытия формы оплаты.
type Response struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	KeyID    string `json:"key_id,omitempty"`
	Mock     bool   `json:"mock"`
}

// Service создаёт заказ у провайдера.
type Service interface {
	CreateOrder(ctx context.Context, account *models.Account) (*models.PaymentOrder, error)
}

// Handler обрабатывает POST /payment/create-order.
type Handler struct {
	log     *slog.Logger
	service Service
	keyID   string
}

// New создаёт обработчик. keyID публичный ключ провайдера, его видит клиент.
func New(log *slog.Logger, service Service, keyID string) *Handler {
	return &Handler{
		log:     log,
		service: service,
		keyID:   keyID,
	}
}

// ServeHTTP godoc
// @Summary Создание заказа на pro-план
// @Tags Payment
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=Response}
// @Failure 401 {object} response.ErrorResponse "Нет или неверный токен"
// @Failure 500 {object} response.ErrorResponse "Провайдер недоступен"
// @Router /payment/create-order [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.createorder"

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

	order, err := h.service.CreateOrder(r.Context(), account)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(Response{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Receipt:  order.Receipt,
		KeyID:    h.keyID,
		Mock:     order.Mock,
	}))
}
