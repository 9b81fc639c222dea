// Package savebook добавляет книгу в сохранённые пользователя (PUT) и убирает её оттуда (DELETE).
package savebook

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
)

// Service описывает работу с сохранёнными книгами.
type Service interface {
	SaveBook(ctx context.Context, userID string, bookID int64) error
	UnsaveBook(ctx context.Context, userID string, bookID int64) error
}

// Handler обрабатывает запросы сохранения книг.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Сохранить книгу / убрать из сохранённых
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Param bookID path int true "ID книги"
// @Success 200 {object} response.Response "Готово"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 404 {object} response.ErrorResponse "Книга не найдена"
// @Router /auth/save/{bookID} [put]
// @Router /auth/save/{bookID} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.savebook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	u, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	bookID, err := request.PathID(r, "bookID")
	if err != nil {
		response.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	saved := r.Method != http.MethodDelete
	if saved {
		err = h.service.SaveBook(r.Context(), u.ID, bookID)
	} else {
		err = h.service.UnsaveBook(r.Context(), u.ID, bookID)
	}
	if err != nil {
		log.Error("failed to update saved books", sl.Err(err), slog.Int64("book_id", bookID))
		response.ServiceError(w, r, err, "failed to update saved books")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"book_id": bookID,
		"saved":   saved,
	}))
}
