// Package payment реализует решение администратора по ручной оплате пользователя.
package payment

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

// Request решение по оплате. Plan учитывается только при verified, по умолчанию monthly.
type Request struct {
	Status string `json:"status" validate:"required,oneof=verified rejected"`
	Plan   string `json:"plan"`
}

// Service описывает проверку ручной оплаты.
type Service interface {
	ReviewPayment(ctx context.Context, id, status string, plan *models.PlanType) (*models.User, error)
}

// Handler обрабатывает решения по ручной оплате.
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
// @Summary Проверка ручной оплаты
// @Tags Users
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Param request body Request true "Решение"
// @Success 200 {object} response.Response "Обновлённый пользователь"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /users/{id}/payment [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.payment"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := request.PathUUID(r, "id")
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

	var plan *models.PlanType
	if req.Plan != "" {
		p := models.PlanType(req.Plan)
		plan = &p
	}

	u, err := h.service.ReviewPayment(r.Context(), id, req.Status, plan)
	if err != nil {
		log.Error("failed to review payment", sl.Err(err), slog.String("user_id", id))
		response.ServiceError(w, r, err, "failed to review payment")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(u))
}
