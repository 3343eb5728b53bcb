package auth

import (
	"context"

	"designcraft/internal/models"

	"github.com/google/uuid"
)

// Identity - аутентифицированный пользователь текущего запроса.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   models.Role
}

// IsAdmin сообщает, есть ли у пользователя права администратора.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == models.RoleAdmin
}

type identityKey struct{}

// WithIdentity кладёт личность в контекст запроса.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom достаёт личность из контекста запроса.
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
