package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"
)

const wrongCredentials = "Username or password wrong"

// statusFor maps err to a response status and a client-facing message.
func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprint(he.Message)
	}

	var ve validation.Errors
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Error()
	}

	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrUnknownUser):
		return http.StatusUnauthorized, wrongCredentials
	case errors.Is(err, common.ErrBadCredentials):
		return http.StatusForbidden, wrongCredentials
	case errors.Is(err, common.ErrUsernameTaken):
		return http.StatusBadRequest, "Username already registered"
	case errors.Is(err, common.ErrPasswordMismatch):
		return http.StatusBadRequest, "Wrong password"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusBadRequest, "User not found"
	case isCredentialError(err), errors.Is(err, common.ErrorUnauthorized):
		return http.StatusForbidden, accessDenied
	}

	return http.StatusInternalServerError, "Internal server error"
}

func (s *HTTPServer) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error(c.Request().Context(), "request failed", "error", err.Error(), "uri", c.Request().RequestURI)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(code)
	} else {
		werr = c.JSON(code, WebResponse{Errors: msg})
	}
	if werr != nil {
		s.logger.Error(c.Request().Context(), "write error response", "error", werr.Error())
	}
}
