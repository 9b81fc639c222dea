// Package me отдаёт профиль текущего пользователя.
package me

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/glanceread/internal/http/middlewarectx"
	"github.com/magabrotheeeer/glanceread/internal/http/response"
	"github.com/magabrotheeeer/glanceread/internal/lib/sl"
	"github.com/magabrotheeeer/glanceread/internal/models"
)

// Service описывает получение профиля.
type Service interface {
	Profile(ctx context.Context, u *models.User) (*models.Profile, error)
}

// Handler обрабатывает запросы профиля.
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
// @Summary Текущий пользователь
// @Description Данные аккаунта с актуальным статусом подписки, сохранённые книги и прогресс чтения.
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Профиль"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/user [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.me"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	u, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile, err := h.service.Profile(r.Context(), u)
	if err != nil {
		log.Error("failed to load profile", sl.Err(err))
		response.ServiceError(w, r, err, "failed to load profile")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(profile))
}
