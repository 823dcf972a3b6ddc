package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/grademind/grademind-api/internal/core/domain"
	"github.com/grademind/grademind-api/internal/core/service"
)

// RequireRole admits only callers holding role. It must run after Auth; a
// request without a resolved caller is rejected the same way as a wrong role.
func RequireRole(role domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := service.RequireRole(CurrentUser(c), role); err != nil {
				return err
			}
			return next(c)
		}
	}
}
