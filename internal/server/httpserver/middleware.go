package httpserver

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const accessDenied = "Access denied"

func (s *HTTPServer) useMiddleware(e *echo.Echo) {
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info(c.Request().Context(), "request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String(),
				"request_id", v.RequestID,
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())
}

func isCredentialError(err error) bool {
	return errors.Is(err, common.ErrMissingAuthHeader) ||
		errors.Is(err, common.ErrInvalidToken) ||
		errors.Is(err, common.ErrTokenExpired) ||
		errors.Is(err, common.ErrTokenRevoked) ||
		errors.Is(err, common.ErrSubjectMismatch) ||
		errors.Is(err, common.ErrUnknownUser)
}

// authenticate attaches the caller identity to the request context. A request
// that fails authentication continues anonymously.
func (s *HTTPServer) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := req.Context()

		id, err := s.guard.Authenticate(ctx, req.Header.Get(common.AuthorizationHeaderName))
		if err != nil {
			if isCredentialError(err) {
				s.logger.Debug(ctx, "anonymous request", "reason", err.Error(), "uri", req.RequestURI)
			} else {
				s.logger.Error(ctx, "authentication failed", "error", err.Error())
			}
			return next(c)
		}

		c.SetRequest(req.WithContext(auth.WithIdentity(ctx, id)))
		return next(c)
	}
}

func (s *HTTPServer) requireAuthenticated(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := auth.IdentityFrom(c.Request().Context()); !ok {
			return echo.NewHTTPError(http.StatusForbidden, accessDenied)
		}
		return next(c)
	}
}

func (s *HTTPServer) requireAuthority(authority string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, _ := auth.IdentityFrom(c.Request().Context())
			if !id.HasAuthority(authority) {
				return echo.NewHTTPError(http.StatusForbidden, accessDenied)
			}
			return next(c)
		}
	}
}
