package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/glanceread/internal/http/response"
	"github.com/magabrotheeeer/glanceread/internal/lib/sl"
	"github.com/magabrotheeeer/glanceread/internal/models"
)

// SubscriptionRefresher пересчитывает статус подписки пользователя.
type SubscriptionRefresher interface {
	Refresh(ctx context.Context, u *models.User) (*models.User, error)
}

// SubscriptionRefreshMiddleware один раз за запрос переводит истёкшую подписку
// в inactive и сохраняет это до вызова обработчика. Анонимные запросы проходят без изменений.
func SubscriptionRefreshMiddleware(refresher SubscriptionRefresher, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SubscriptionRefreshMiddleware"

			u, ok := UserFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			fresh, err := refresher.Refresh(r.Context(), u)
			if err != nil {
				log.Error("failed to refresh subscription",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("user_id", u.ID),
					sl.Err(err))
				response.WriteError(w, r, http.StatusInternalServerError, "internal server error")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), fresh)))
		})
	}
}
