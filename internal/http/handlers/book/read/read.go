// Package read реализует HTTP-обработчик чтения книги.
//
// Анонимный читатель и читатель без активной подписки получают у премиальной
// книги только первые страницы и маркер продолжения; решение о доступе
// возвращается в ответе вместе с книгой.
package read

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
	bookservice "github.com/magabrotheeeer/glanceread/internal/services/book"
)

// Service описывает интерфейс бизнес-логики чтения книги.
type Service interface {
	View(ctx context.Context, id int64, viewer *models.User) (*bookservice.BookView, error)
}

// Handler обрабатывает запросы на чтение книги по ID.
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
// @Summary Книга по ID
// @Description Возвращает книгу со страницами, доступными текущему читателю. Токен необязателен.
// @Tags Books
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID книги"
// @Success 200 {object} response.Response "Книга и решение о доступе"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Книга не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /books/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.book.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := request.PathID(r, "id")
	if err != nil {
		log.Info("failed to decode id from url", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	viewer, _ := middlewarectx.UserFromContext(r.Context())
	view, err := h.service.View(r.Context(), id, viewer)
	if err != nil {
		log.Error("failed to read book", sl.Err(err), slog.Int64("book_id", id))
		response.ServiceError(w, r, err, "could not read book")
		return
	}

	log.Debug("book served", slog.Int64("book_id", id), slog.String("access", string(view.Access)))
	render.JSON(w, r, response.StatusOKWithData(view))
}
