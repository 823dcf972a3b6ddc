package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/grademind/grademind-api/internal/core/domain"
	"github.com/grademind/grademind-api/internal/core/ports"
	"github.com/grademind/grademind-api/internal/core/service"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  domain.PublicUser
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:          req.Email,
		Username:       req.Username,
		Password:       req.Password,
		Fullname:       req.Fullname,
		Role:           req.Role,
		Phone:          req.Phone,
		NRP:            req.NRP,
		Institution:    req.Institution,
		Biography:      req.Biography,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, user)
}

// Login exchanges an email or username plus password for a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials; email may hold a username"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.login(c, req.Email, req.Password)
}

// Token is the OAuth2 password-grant flavour of Login.
//
// @Summary      OAuth2 token
// @Tags         auth
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        username  formData  string  true  "Email or username"
// @Param        password  formData  string  true  "Password"
// @Success      200       {object}  loginResponse
// @Failure      401       {object}  map[string]string
// @Router       /auth/token [post]
func (h *AuthHandler) Token(c echo.Context) error {
	var req tokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.login(c, req.Username, req.Password)
}

func (h *AuthHandler) login(c echo.Context, identifier, password string) error {
	result, err := h.authService.Login(c.Request().Context(), ports.LoginInput{
		Identifier: identifier,
		Password:   password,
		IPAddress:  c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
	})
	if err != nil {
		// A deactivated account is a failed login, not a forbidden resource.
		if errors.Is(err, domain.ErrAccountInactive) {
			return echo.NewHTTPError(http.StatusUnauthorized, domain.ErrAccountInactive.Error()).SetInternal(err)
		}
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		User:        result.User,
	})
}

// Me returns the authenticated caller.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.PublicUser
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user.Public())
}

// Logout ends the session behind a token. The token comes from the ?token=
// query parameter or the Authorization header; the call always succeeds.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Param        token  query     string  false  "Token to revoke, if not sent as a bearer header"
// @Success      200    {object}  messageResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		token, _ = service.ExtractBearer(c.Request().Header.Get(echo.HeaderAuthorization))
	}

	h.authService.Logout(c.Request().Context(), token)

	return c.JSON(http.StatusOK, messageResponse{Message: "logout successful"})
}

// Sessions lists the caller's login history, newest first.
//
// @Summary      List my sessions
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/sessions [get]
func (h *AuthHandler) Sessions(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	sessions, err := h.authService.Sessions(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	if sessions == nil {
		sessions = []*domain.Session{}
	}

	return c.JSON(http.StatusOK, sessionResponse{Sessions: sessions})
}
