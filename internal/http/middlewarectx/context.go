package middlewarectx

import (
	"context"

	"github.com/magabrotheeeer/glanceread/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// User ключ текущего пользователя в контексте.
const User Key = "user"

// WithUser кладёт пользователя u в контекст.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, User, u)
}

// UserFromContext возвращает пользователя, положенного JWT-middleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(User).(*models.User)
	return u, ok && u != nil
}
