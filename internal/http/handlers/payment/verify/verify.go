// Package verify подтверждает оплату через шлюз и активирует тариф.
//
// Подпись шлюза проверяется над парой (orderCreationId, razorpayPaymentId).
// При несовпадении подписи подписка не меняется.
package verify

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

// Request данные, полученные клиентом от формы оплаты.
type Request struct {
	OrderCreationID   string `json:"orderCreationId" validate:"required"`
	RazorpayPaymentID string `json:"razorpayPaymentId" validate:"required"`
	RazorpayOrderID   string `json:"razorpayOrderId"`
	RazorpaySignature string `json:"razorpaySignature" validate:"required"`
	PlanID            string `json:"planId" validate:"required"`
}

// Service описывает подтверждение оплаты.
type Service interface {
	Verify(ctx context.Context, u *models.User, in paymentservice.VerifyInput) (*models.User, error)
}

// Handler обрабатывает подтверждение оплаты.
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
// @Summary Подтвердить оплату
// @Tags Payments
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Ответ платёжной формы"
// @Success 200 {object} response.Response "Оплата подтверждена"
// @Failure 400 {object} response.ErrorResponse "Подпись не совпала"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Router /payment/verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.verify"

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
		response.Validation(w, r, err)
		return
	}

	updated, err := h.service.Verify(r.Context(), u, paymentservice.VerifyInput{
		OrderID:   req.OrderCreationID,
		PaymentID: req.RazorpayPaymentID,
		Signature: req.RazorpaySignature,
		Plan:      models.PlanType(req.PlanID),
	})
	if err != nil {
		log.Warn("payment verification failed", sl.Err(err))
		response.ServiceError(w, r, err, "failed to verify payment")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"msg":       "success",
		"orderId":   req.RazorpayOrderID,
		"paymentId": req.RazorpayPaymentID,
		"user":      updated,
	}))
}
