// Package list отдаёт каталог книг с поиском по названию или автору и фильтром категории.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/glanceread/internal/http/response"
	"github.com/magabrotheeeer/glanceread/internal/lib/sl"
	"github.com/magabrotheeeer/glanceread/internal/models"
)

// Service описывает интерфейс бизнес-логики каталога.
type Service interface {
	List(ctx context.Context, filter models.BookFilter) ([]*models.Book, error)
}

// Handler обрабатывает запросы каталога.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Каталог книг
// @Description Список книг, новые первыми. search ищет по названию и автору без учёта регистра.
// @Tags Books
// @Produce  json
// @Param search query string false "Строка поиска"
// @Param category query string false "Категория"
// @Success 200 {object} response.Response "Список книг"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /books [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.book.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q := r.URL.Query()
	books, err := h.service.List(r.Context(), models.BookFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
	})
	if err != nil {
		log.Error("failed to list books", sl.Err(err))
		response.ServiceError(w, r, err, "failed to list books")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(books))
}
