// Package transaction принимает от пользователя данные ручной оплаты на проверку.
package transaction

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/glanceread/internal/http/middlewarectx"
	"github.com/magabrotheeeer/glanceread/internal/http/request"
	"github.com/magabrotheeeer/glanceread/internal/http/response"
	"github.com/magabrotheeeer/glanceread/internal/lib/sl"
	"github.com/magabrotheeeer/glanceread/internal/models"
)

// Service описывает приём ручной оплаты.
type Service interface {
	SubmitTransaction(ctx context.Context, userID, transactionID string, screenshot *models.File) error
}

// Handler обрабатывает отправку ручной оплаты.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отправить ручную оплату
// @Description Сохраняет номер транзакции и необязательный скриншот; статус оплаты становится pending.
// @Tags Users
// @Accept  mpfd
// @Produce  json
// @Security BearerAuth
// @Param transaction_id formData string true "Номер транзакции"
// @Param screenshot formData file false "Скриншот оплаты"
// @Success 200 {object} response.Response "Принято на проверку"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Router /users/transaction [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.transaction"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	u, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := request.ParseMultipart(w, r); err != nil {
		log.Info("failed to parse multipart form", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}

	screenshot, err := request.File(r, "screenshot")
	if err != nil {
		log.Info("failed to read screenshot", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, "invalid screenshot")
		return
	}

	if err := h.service.SubmitTransaction(r.Context(), u.ID, r.FormValue("transaction_id"), screenshot); err != nil {
		log.Error("failed to submit transaction", sl.Err(err))
		response.ServiceError(w, r, err, "failed to submit transaction")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]string{
		"payment_status": models.PaymentPending,
	}))
}
