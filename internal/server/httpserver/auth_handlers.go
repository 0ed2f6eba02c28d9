package httpserver

import (
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/labstack/echo/v4"
)

func (s *HTTPServer) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	ctx := c.Request().Context()

	pair, err := s.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "Logged in", "username", req.Username)
	return c.JSON(http.StatusOK, WebResponse{Data: pair})
}

func (s *HTTPServer) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	ctx := c.Request().Context()

	user, pair, err := s.auth.Register(ctx, services.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "Registered", "username", user.Username)
	return c.JSON(http.StatusOK, WebResponse{Data: registerResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user,
	}})
}

// refreshToken never reports an error: any failure yields 200 with no body.
func (s *HTTPServer) refreshToken(c echo.Context) error {
	ctx := c.Request().Context()

	token, err := auth.BearerToken(c.Request().Header.Get(common.AuthorizationHeaderName))
	if err != nil {
		s.logger.Debug(ctx, "refresh skipped", "reason", err.Error())
		return c.NoContent(http.StatusOK)
	}

	pair, err := s.auth.RefreshToken(ctx, token)
	if err != nil {
		s.logger.Debug(ctx, "refresh skipped", "reason", err.Error())
		return c.NoContent(http.StatusOK)
	}

	return c.JSON(http.StatusOK, pair)
}

// logout is idempotent and always answers 200.
func (s *HTTPServer) logout(c echo.Context) error {
	ctx := c.Request().Context()

	token, err := auth.BearerToken(c.Request().Header.Get(common.AuthorizationHeaderName))
	if err != nil {
		return c.NoContent(http.StatusOK)
	}

	if err := s.auth.Logout(ctx, token); err != nil {
		s.logger.Error(ctx, "logout failed", "error", err.Error())
	}

	return c.NoContent(http.StatusOK)
}
