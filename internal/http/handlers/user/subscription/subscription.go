// Package subscription реализует ручное изменение подписки пользователя администратором.
//
// status=inactive просто выключает подписку. status=active с тарифом продлевает её
// на срок тарифа от текущего момента; без тарифа включает подписку обратно, если
// прежний срок ещё не истёк.
package subscription

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

// Request новое состояние подписки.
type Request struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
	Plan   string `json:"plan"`
}

// Service описывает изменение подписки.
type Service interface {
	SetSubscription(ctx context.Context, id, status string, plan *models.PlanType) (*models.User, error)
}

// Handler обрабатывает запросы изменения подписки.
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
// @Summary Изменить подписку пользователя
// @Tags Users
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Param request body Request true "Статус и необязательный тариф"
// @Success 200 {object} response.Response "Обновлённый пользователь"
// @Failure 400 {object} response.ErrorResponse "Некорректный статус или тариф"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /users/{id}/subscription [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.subscription"

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

	u, err := h.service.SetSubscription(r.Context(), id, req.Status, plan)
	if err != nil {
		log.Error("failed to update subscription", sl.Err(err), slog.String("user_id", id))
		response.ServiceError(w, r, err, "failed to update subscription")
		return
	}

	log.Info("subscription updated",
		slog.String("user_id", id),
		slog.String("status", u.SubscriptionStatus),
		slog.String("plan", string(u.PlanType)),
	)
	render.JSON(w, r, response.StatusOKWithData(u))
}
