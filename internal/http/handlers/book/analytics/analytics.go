// Package analytics отдаёт администратору статистику кликов по партнёрской ссылке книги.
package analytics

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/glanceread/internal/http/request"
	"github.com/magabrotheeeer/glanceread/internal/http/response"
	"github.com/magabrotheeeer/glanceread/internal/lib/sl"
	"github.com/magabrotheeeer/glanceread/internal/models"
)

// Service описывает интерфейс аналитики кликов.
type Service interface {
	Analytics(ctx context.Context, bookID int64) (*models.AffiliateAnalytics, error)
}

// Handler обрабатывает запросы аналитики.
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
// @Summary Аналитика партнёрских кликов
// @Description Всего кликов, разбивка по источникам, клики по дням за 30 дней и число уникальных пользователей.
// @Tags Books
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID книги"
// @Success 200 {object} response.Response "Статистика"
// @Failure 404 {object} response.ErrorResponse "Книга не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /books/{id}/affiliate-analytics [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.book.analytics"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := request.PathID(r, "id")
	if err != nil {
		response.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.service.Analytics(r.Context(), id)
	if err != nil {
		log.Error("failed to build analytics", sl.Err(err), slog.Int64("book_id", id))
		response.ServiceError(w, r, err, "failed to build analytics")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(res))
}
