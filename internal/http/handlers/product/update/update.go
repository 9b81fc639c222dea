// Package update реализует частичное обновление товара.
package update

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/glanceread/internal/http/request"
	"github.com/magabrotheeeer/glanceread/internal/http/response"
	"github.com/magabrotheeeer/glanceread/internal/lib/sl"
	"github.com/magabrotheeeer/glanceread/internal/models"
)

// Request изменяемые поля товара.
type Request struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Image       *string `json:"image" validate:"omitempty,url"`
	Link        *string `json:"link" validate:"omitempty,url"`
	Price       *string `json:"price" validate:"omitempty,max=50"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
}

// Service описывает обновление товара.
type Service interface {
	Update(ctx context.Context, id int64, patch models.ProductPatch) (*models.Product, error)
}

// Handler обрабатывает обновление товара.
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
// @Summary Обновить товар
// @Tags Products
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID товара"
// @Param request body Request true "Изменяемые поля"
// @Success 200 {object} response.Response "Обновлённый товар"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.ErrorResponse "Товар не найден"
// @Router /products/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.product.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := request.PathID(r, "id")
	if err != nil {
		response.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req Request
	if err := request.DecodeJSON(r, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Validation(w, r, err)
		return
	}

	p, err := h.service.Update(r.Context(), id, models.ProductPatch(req))
	if err != nil {
		log.Error("failed to update product", sl.Err(err), slog.Int64("product_id", id))
		response.ServiceError(w, r, err, "failed to update product")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(p))
}
