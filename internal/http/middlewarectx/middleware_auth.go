// Package middlewarectx содержит HTTP middleware аутентификации и доступа.
//
// JWTMiddleware проверяет токен из заголовка Authorization (Bearer) или x-auth-token,
// загружает пользователя из хранилища и кладёт его в контекст запроса.
// SubscriptionRefreshMiddleware затем лениво сбрасывает истёкшую подписку,
// а AdminOnly ограничивает маршрут администраторами.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/glanceread/internal/http/response"
	"github.com/magabrotheeeer/glanceread/internal/lib/jwt"
	"github.com/magabrotheeeer/glanceread/internal/lib/sl"
	"github.com/magabrotheeeer/glanceread/internal/models"
)

// LegacyTokenHeader заголовок, в котором токен передаёт старый клиент.
const LegacyTokenHeader = "x-auth-token"

// TokenParser проверяет подпись и срок токена.
type TokenParser interface {
	ParseToken(token string) (*jwt.CustomClaims, error)
}

// UserLoader загружает пользователя по идентификатору из токена.
type UserLoader interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return strings.TrimSpace(r.Header.Get(LegacyTokenHeader))
}

func authenticate(ctx context.Context, parser TokenParser, users UserLoader, token string) (*models.User, error) {
	claims, err := parser.ParseToken(token)
	if err != nil {
		return nil, err
	}
	return users.GetUser(ctx, claims.UserID)
}

// JWTMiddleware возвращает HTTP middleware, который требует валидный токен.
//
// Если токен валиден и пользователь существует, пользователь добавляется в контекст,
// иначе возвращается 401 Unauthorized.
func JWTMiddleware(parser TokenParser, users UserLoader, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token := tokenFromRequest(r)
			if token == "" {
				log.Info("missing authorization token")
				response.WriteError(w, r, http.StatusUnauthorized, "no token, authorization denied")
				return
			}

			u, err := authenticate(r.Context(), parser, users, token)
			switch {
			case errors.Is(err, jwt.ErrInvalidToken), errors.Is(err, models.ErrNotFound):
				log.Info("invalid token", sl.Err(err))
				response.WriteError(w, r, http.StatusUnauthorized, "token is not valid")
				return
			case err != nil:
				log.Error("failed to load user", sl.Err(err))
				response.WriteError(w, r, http.StatusInternalServerError, "internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// OptionalJWTMiddleware кладёт пользователя в контекст, если запрос несёт валидный токен.
// Отсутствующий или невалидный токен не ошибка: запрос продолжается как анонимный.
func OptionalJWTMiddleware(parser TokenParser, users UserLoader, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.OptionalJWTMiddleware"

			token := tokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			u, err := authenticate(r.Context(), parser, users, token)
			if err != nil {
				log.Debug("request continues anonymously",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					sl.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// AdminOnly пропускает только администраторов. Должен стоять после JWTMiddleware.
func AdminOnly(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				response.WriteError(w, r, http.StatusUnauthorized, "no token, authorization denied")
				return
			}
			if !u.IsAdmin() {
				log.Warn("admin route denied",
					slog.String("user_id", u.ID),
					slog.String("path", r.URL.Path),
					slog.String("request_id", middleware.GetReqID(r.Context())))
				response.WriteError(w, r, http.StatusForbidden, "access denied, admin only")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
