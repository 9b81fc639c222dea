// Package order создаёт заказ в платёжном шлюзе на стоимость выбранного тарифа.
package order

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/glanceread/internal/http/middlewarectx"
	"github.com/magabrotheeeer/glanceread/internal/http/request"
	"github.com/magabrotheeeer/glanceread/internal/http/response"
	"github.com/magabrotheeeer/glanceread/internal/lib/sl"
	"github.com/magabrotheeeer/glanceread/internal/models"
	paymentservice "github.com/magabrotheeeer/glanceread/internal/services/payment"
)

// Request выбранный тариф. Имя поля совпадает с тем, что шлёт клиент.
type Request struct {
	PlanID string `json:"planId" validate:"required,oneof=monthly annual lifetime"`
}

// Service описывает создание заказа.
type Service interface {
	CreateOrder(ctx context.Context, userID string, plan models.PlanType) (*paymentservice.OrderResult, error)
}

// Handler обрабатывает создание заказов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать заказ на оплату
// @Description Создаёт заказ в Razorpay. Цены: monthly 4900, annual 49900, lifetime 149900 (пайсы).
// @Tags Payments
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Тариф"
// @Success 200 {object} response.Response "Заказ и публичный ключ шлюза"
// @Failure 400 {object} response.ErrorResponse "Неизвестный тариф"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка шлюза"
// @Router /payment/orders [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.order"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	u, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req Request
	if err := request.DecodeJSON(r, &req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.WriteError(w, r, http.StatusBadRequest, "invalid plan selected")
		return
	}

	res, err := h.service.CreateOrder(r.Context(), u.ID, models.PlanType(req.PlanID))
	if err != nil {
		log.Error("failed to create order", sl.Err(err))
		response.ServiceError(w, r, err, "failed to create order")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(res))
}
