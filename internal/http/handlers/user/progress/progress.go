// Package progress принимает от читалки прогресс по книге и длительность сессии.
package progress

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/glanceread/internal/http/middlewarectx"
	"github.com/magabrotheeeer/glanceread/internal/http/request"
	"github.com/magabrotheeeer/glanceread/internal/http/response"
	"github.com/magabrotheeeer/glanceread/internal/lib/sl"
	userservice "github.com/magabrotheeeer/glanceread/internal/services/user"
)

// Request отчёт о сессии чтения. SessionTime в минутах.
type Request struct {
	BookID      int64   `json:"book_id" validate:"required,gt=0"`
	Progress    float64 `json:"progress" validate:"gte=0,lte=100"`
	SessionTime float64 `json:"session_time" validate:"gte=0"`
}

// Service описывает сохранение прогресса.
type Service interface {
	UpdateProgress(ctx context.Context, userID string, in userservice.ProgressInput) error
}

// Handler обрабатывает отчёты о прогрессе.
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
// @Summary Прогресс чтения
// @Tags Users
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Прогресс"
// @Success 200 {object} response.Response "Сохранено"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Router /users/progress [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.progress"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	u, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req Request
	if err := request.DecodeJSON(r, &req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Validation(w, r, err)
		return
	}

	err := h.service.UpdateProgress(r.Context(), u.ID, userservice.ProgressInput{
		BookID:      req.BookID,
		Progress:    req.Progress,
		SessionTime: req.SessionTime,
	})
	if err != nil {
		log.Error("failed to update progress", sl.Err(err), slog.Int64("book_id", req.BookID))
		response.ServiceError(w, r, err, "failed to update progress")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(req))
}
