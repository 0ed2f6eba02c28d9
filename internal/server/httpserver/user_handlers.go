package httpserver

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/labstack/echo/v4"
)

func (s *HTTPServer) changePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	ctx := c.Request().Context()
	id, _ := auth.IdentityFrom(ctx)

	err := s.auth.ChangePassword(ctx, id.User.Username, req.OldPassword, req.NewPassword, req.ConfirmPassword)
	switch {
	case errors.Is(err, common.ErrBadCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "Wrong password")
	case errors.Is(err, common.ErrUnknownUser):
		return echo.NewHTTPError(http.StatusForbidden, accessDenied)
	case err != nil:
		return err
	}

	s.logger.Info(ctx, "Password changed", "username", id.User.Username)
	return c.JSON(http.StatusOK, WebResponse{Data: messageResponse{Message: "Password changed successfully"}})
}

func (s *HTTPServer) listUsers(c echo.Context) error {
	users, err := s.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, WebResponse{Data: usersResponse{Users: users}})
}

func (s *HTTPServer) currentUser(c echo.Context) error {
	id, _ := auth.IdentityFrom(c.Request().Context())
	return c.JSON(http.StatusOK, WebResponse{Data: userResponse{User: id.User}})
}

func (s *HTTPServer) getUser(c echo.Context) error {
	user, err := s.users.Get(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, WebResponse{Data: userResponse{User: user}})
}

func (s *HTTPServer) health(c echo.Context) error {
	if err := s.pinger.PingContext(c.Request().Context()); err != nil {
		s.logger.Warn(c.Request().Context(), "health check failed", "error", err.Error())
		return c.JSON(http.StatusServiceUnavailable, WebResponse{Errors: "unavailable"})
	}
	return c.JSON(http.StatusOK, WebResponse{Data: statusResponse{Status: "ok"}})
}
