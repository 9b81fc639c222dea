// Package update реализует частичное обновление книги администратором.
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

// Request поля для изменения; отсутствующие поля не меняются.
type Request struct {
	Title         *string `json:"title" validate:"omitempty,min=1,max=200"`
	Author        *string `json:"author" validate:"omitempty,min=1,max=200"`
	Category      *string `json:"category" validate:"omitempty,min=1,max=100"`
	AffiliateLink *string `json:"affiliate_link" validate:"omitempty,url"`
	IsPremium     *bool   `json:"is_premium"`
	IsFree        *bool   `json:"is_free"`
}

// Service описывает интерфейс бизнес-логики обновления книги.
type Service interface {
	Update(ctx context.Context, id int64, patch models.BookPatch) (*models.Book, error)
}

// Handler обрабатывает запросы на обновление книги.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Обновить книгу
// @Tags Books
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID книги"
// @Param request body Request true "Изменяемые поля"
// @Success 200 {object} response.Response "Обновлённая книга"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.ErrorResponse "Книга не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /books/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.book.update"

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
		log.Info("validation failed", sl.Err(err))
		response.Validation(w, r, err)
		return
	}

	book, err := h.service.Update(r.Context(), id, models.BookPatch(req))
	if err != nil {
		log.Error("failed to update book", sl.Err(err), slog.Int64("book_id", id))
		response.ServiceError(w, r, err, "failed to update book")
		return
	}

	log.Info("book updated", slog.Int64("book_id", id))
	render.JSON(w, r, response.StatusOKWithData(book))
}
