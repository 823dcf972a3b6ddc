package ports

import (
	"context"

	"github.com/grademind/grademind-api/internal/core/domain"
)

// UserListFilter narrows UserRepository.List. A nil Role lists every role.
type UserListFilter struct {
	Skip  int
	Limit int
	Role  *domain.Role
}

// UserRepository is the credential store. Lookups return domain.ErrUserNotFound
// when no row matches. Create and Update rely on the store's unique indexes and
// report collisions as *domain.AlreadyExistsError (or domain.ErrStorageConflict
// when the colliding field cannot be determined).
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter UserListFilter) ([]*domain.User, error)
}
