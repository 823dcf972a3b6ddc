package ports

import (
	"context"

	"github.com/grademind/grademind-api/internal/core/domain"
)

// ListUsersInput carries pagination for the roster endpoint.
type ListUsersInput struct {
	Skip  int
	Limit int // 1..1000, defaults to 100
	Role  string
}

// UpdateProfileInput is a partial update; nil fields are left untouched.
type UpdateProfileInput struct {
	Fullname       *string
	Username       *string
	Email          *string
	Phone          *string
	NRP            *string
	Institution    *string
	Biography      *string
	ProfilePicture *string
	Password       *string
}

type UserService interface {
	Get(ctx context.Context, id int64) (*domain.PublicUser, error)
	List(ctx context.Context, input ListUsersInput) ([]*domain.PublicUser, error)
	UpdateProfile(ctx context.Context, id int64, input UpdateProfileInput) (*domain.PublicUser, error)
	SetActive(ctx context.Context, actor *domain.User, id int64, active bool) (*domain.PublicUser, error)
	Delete(ctx context.Context, actor *domain.User, id int64) error
}
