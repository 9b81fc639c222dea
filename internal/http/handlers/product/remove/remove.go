// Package remove удаляет товар с витрины.
package remove

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

// Service описывает удаление товара.
type Service interface {
	Remove(ctx context.Context, id int64) error
}

// Handler обрабатывает удаление товара.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить товар
// @Tags Products
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID товара"
// @Success 200 {object} response.Response "Товар удалён"
// @Failure 404 {object} response.ErrorResponse "Товар не найден"
// @Router /products/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.product.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := request.PathID(r, "id")
	if err != nil {
		response.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Remove(r.Context(), id); err != nil {
		log.Error("failed to remove product", sl.Err(err), slog.Int64("product_id", id))
		response.ServiceError(w, r, err, "failed to remove product")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"deleted": id,
	}))
}
