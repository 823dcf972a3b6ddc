package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/grademind/grademind-api/internal/core/domain"
	"github.com/grademind/grademind-api/internal/core/ports"
)

type UserHandler struct {
	userService ports.UserService
}

func NewUserHandler(userService ports.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List handles GET /users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        skip   query     int     false  "Rows to skip"
// @Param        limit  query     int     false  "Page size (1-1000, default 100)"
// @Param        role   query     string  false  "Filter by role (dosen, mahasiswa)"
// @Success      200    {array}   domain.PublicUser
// @Failure      400    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	var in ports.ListUsersInput
	err := echo.QueryParamsBinder(c).
		Int("skip", &in.Skip).
		Int("limit", &in.Limit).
		String("role", &in.Role).
		BindError()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters").SetInternal(err)
	}

	users, err := h.userService.List(c.Request().Context(), in)
	if err != nil {
		return err
	}
	if users == nil {
		users = []*domain.PublicUser{}
	}

	return c.JSON(http.StatusOK, users)
}

// Me handles GET /users/me.
//
// @Summary      Current user profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.PublicUser
// @Router       /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user.Public())
}

// UpdateMe handles PATCH /users/me.
//
// @Summary      Update own profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  domain.PublicUser
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /users/me [patch]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := h.userService.UpdateProfile(c.Request().Context(), user.ID, ports.UpdateProfileInput{
		Fullname:       req.Fullname,
		Username:       req.Username,
		Email:          req.Email,
		Phone:          req.Phone,
		NRP:            req.NRP,
		Institution:    req.Institution,
		Biography:      req.Biography,
		ProfilePicture: req.ProfilePicture,
		Password:       req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updated)
}

// Get handles GET /users/:id.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  domain.PublicUser
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	user, err := h.userService.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// SetStatus handles PATCH /users/:id/status. Superusers only.
//
// @Summary      Activate or deactivate a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int            true  "User id"
// @Param        body  body      statusRequest  true  "New status"
// @Success      200   {object}  domain.PublicUser
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /users/{id}/status [patch]
func (h *UserHandler) SetStatus(c echo.Context) error {
	actor, err := ctxUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req statusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userService.SetActive(c.Request().Context(), actor, id, *req.IsActive)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// Delete handles DELETE /users/:id. Superusers only, and never themselves.
//
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	actor, err := ctxUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.userService.Delete(c.Request().Context(), actor, id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "user deleted"})
}
