// Package affiliateclick учитывает переход по партнёрской ссылке книги.
//
// Клик записывается в журнал с источником, user agent и referer; ответ
// содержит ссылку, на которую клиент перенаправит читателя. Токен необязателен.
package affiliateclick

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/glanceread/internal/http/middlewarectx"
	"github.com/magabrotheeeer/glanceread/internal/http/request"
	"github.com/magabrotheeeer/glanceread/internal/http/response"
	"github.com/magabrotheeeer/glanceread/internal/lib/sl"
	affiliateservice "github.com/magabrotheeeer/glanceread/internal/services/affiliate"
)

// Request тело запроса; пустое тело допустимо.
type Request struct {
	Source string `json:"source"`
}

// Service описывает интерфейс учёта кликов.
type Service interface {
	TrackClick(ctx context.Context, in affiliateservice.ClickInput) (*affiliateservice.ClickResult, error)
}

// Handler обрабатывает клики по партнёрским ссылкам.
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
// @Summary Клик по партнёрской ссылке
// @Description Записывает клик и возвращает партнёрскую ссылку. Неизвестный источник учитывается как other.
// @Tags Books
// @Accept  json
// @Produce  json
// @Param id path int true "ID книги"
// @Param request body Request false "Источник клика"
// @Success 200 {object} response.Response "Ссылка и число кликов"
// @Failure 404 {object} response.ErrorResponse "Книга или ссылка не найдена"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Router /books/{id}/affiliate-click [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.book.affiliateclick"

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
	if err := request.DecodeJSON(r, &req); err != nil && !errors.Is(err, request.ErrEmptyBody) {
		log.Info("failed to decode request body", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	in := affiliateservice.ClickInput{
		BookID:    id,
		Source:    req.Source,
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
	}
	if u, ok := middlewarectx.UserFromContext(r.Context()); ok {
		in.UserID = &u.ID
	}

	res, err := h.service.TrackClick(r.Context(), in)
	if err != nil {
		log.Info("failed to track click", sl.Err(err), slog.Int64("book_id", id))
		response.ServiceError(w, r, err, "failed to track click")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(res))
}
