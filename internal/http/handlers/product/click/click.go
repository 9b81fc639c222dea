// Package click учитывает переход по товару витрины.
package click

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/glanceread/internal/http/request"
	"github.com/magabrotheeeer/glanceread/internal/http/response"
	"github.com/magabrotheeeer/glanceread/internal/lib/sl"
)

// Service описывает учёт переходов.
type Service interface {
	Click(ctx context.Context, id int64) (int64, error)
}

// Handler обрабатывает клики по товарам.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Клик по товару
// @Tags Products
// @Produce  json
// @Param id path int true "ID товара"
// @Success 200 {object} response.Response "Новое значение счётчика"
// @Failure 404 {object} response.ErrorResponse "Товар не найден"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Router /products/{id}/click [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.product.click"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := request.PathID(r, "id")
	if err != nil {
		response.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	clicks, err := h.service.Click(r.Context(), id)
	if err != nil {
		log.Info("failed to count click", sl.Err(err), slog.Int64("product_id", id))
		response.ServiceError(w, r, err, "failed to count click")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]int64{
		"clicks": clicks,
	}))
}
