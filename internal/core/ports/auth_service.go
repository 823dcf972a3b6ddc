package ports

import (
	"context"

	"github.com/grademind/grademind-api/internal/core/domain"
)

// RegisterInput carries a registration candidate from the transport layer.
type RegisterInput struct {
	Email          string
	Username       string
	Password       string
	Fullname       string
	Role           string
	Phone          string
	NRP            string
	Institution    string
	Biography      string
	ProfilePicture string
}

// LoginInput carries credentials plus the origin metadata recorded on the session.
type LoginInput struct {
	// Identifier is either an email address or a username.
	Identifier string
	Password   string
	IPAddress  string
	UserAgent  string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string
	TokenType   string
	User        *domain.PublicUser
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.PublicUser, error)
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	Logout(ctx context.Context, token string)
	Sessions(ctx context.Context, userID int64) ([]*domain.Session, error)
}
