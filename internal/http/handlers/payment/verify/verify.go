// Package verify принимает результат оплаты от клиента и переводит аккаунт на pro.
// Повторная отправка того же платежа отвечает тем же успехом без изменений.
package verify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/banner-generator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/banner-generator/internal/http/response"
	"github.com/magabrotheeeer/banner-generator/internal/lib/sl"
	"github.com/magabrotheeeer/banner-generator/internal/models"
)

// SuccessMessage текст ответа на успешную проверку.
const SuccessMessage = "Payment verified, account upgraded to pro"

// Response результат проверки.
type Response struct {
	Message string               `json:"message"`
	Account response.AccountView `json:"account"`
}

// Service проверяет оплату.
type Service interface {
	Verify(ctx context.Context, account *models.Account, cb models.PaymentCallback) (*models.Account, error)
}

// Handler обрабатывает POST /payment/verify.
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
// @Summary Проверка оплаты
// @Description Проверяет подпись провайдера над (order_id, payment_id) и переводит аккаунт на pro.
// @Tags Payment
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.PaymentCallback true "Данные платежа от провайдера"
// @Success 200 {object} response.Response{data=Response}
// @Failure 400 {object} response.ErrorResponse "Платёж не прошёл проверку"
// @Failure 401 {object} response.ErrorResponse "Нет или неверный токен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /payment/verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.verify"

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

	var cb models.PaymentCallback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	upgraded, err := h.service.Verify(r.Context(), account, cb)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(Response{
		Message: SuccessMessage,
		Account: response.NewAccountView(upgraded),
	}))
}
