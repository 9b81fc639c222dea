// Package create добавляет товар на витрину.
package create

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

// Request поля нового товара. Пустая категория заменяется на категорию по умолчанию.
type Request struct {
	Title       string `json:"title" validate:"required,max=200"`
	Image       string `json:"image" validate:"required,url"`
	Link        string `json:"link" validate:"required,url"`
	Price       string `json:"price" validate:"max=50"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"max=100"`
}

// Service описывает создание товара.
type Service interface {
	Create(ctx context.Context, p *models.Product) error
}

// Handler обрабатывает создание товара.
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
// @Summary Добавить товар
// @Tags Products
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Товар"
// @Success 201 {object} response.Response "Товар создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 403 {object} response.ErrorResponse "Нет прав"
// @Router /products [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.product.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	p := &models.Product{
		Title:       req.Title,
		Image:       req.Image,
		Link:        req.Link,
		Price:       req.Price,
		Description: req.Description,
		Category:    req.Category,
	}
	if err := h.service.Create(r.Context(), p); err != nil {
		log.Error("failed to create product", sl.Err(err))
		response.ServiceError(w, r, err, "failed to create product")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(p))
}
