package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/grademind/grademind-api/internal/core/domain"
	"github.com/grademind/grademind-api/internal/core/service"
)

// Context keys under which Auth stores the resolved caller.
const (
	UserKey  = "auth_user"
	TokenKey = "auth_token"
)

// Authenticator resolves a bearer token into the account it was issued to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// Auth validates the bearer token on every request and injects the caller
// into the echo context. Failures are returned as errors for the central
// error handler; a token whose account has vanished is a 401, not a 404.
func Auth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := service.ExtractBearer(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return err
			}

			user, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, domain.ErrUserNotFound.Error()).SetInternal(err)
				}
				return err
			}

			c.Set(UserKey, user)
			c.Set(TokenKey, token)

			return next(c)
		}
	}
}

// CurrentUser returns the caller injected by Auth, or nil outside it.
func CurrentUser(c echo.Context) *domain.User {
	u, _ := c.Get(UserKey).(*domain.User)
	return u
}

// CurrentToken returns the raw bearer token injected by Auth.
func CurrentToken(c echo.Context) string {
	t, _ := c.Get(TokenKey).(string)
	return t
}
