// Package httpserver exposes the authentication and user services over
// HTTP/JSON using echo.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/labstack/echo/v4"
)

// Options configures the HTTP server.
type Options struct {
	Address string
	// AdminOnlyUserListing restricts GET /users/ to ROLE_ADMIN.
	AdminOnlyUserListing bool
	ShutdownTimeout      time.Duration
}

// AuthService is the session engine used by the auth endpoints.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	Register(ctx context.Context, in services.RegisterInput) (*models.User, *services.TokenPair, error)
	ChangePassword(ctx context.Context, username, oldPassword, newPassword, confirmPassword string) error
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, accessToken string) error
}

// Guard authenticates the Authorization header of a request.
type Guard interface {
	Authenticate(ctx context.Context, header string) (*auth.Identity, error)
}

// UserService answers user queries.
type UserService interface {
	Get(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

// Pinger reports store liveness for /healthz. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HTTPServer struct {
	opts   Options
	echo   *echo.Echo
	logger logging.Logger
	auth   AuthService
	guard  Guard
	users  UserService
	pinger Pinger
}

func NewHTTPServer(opts Options, l logging.Logger, as AuthService, g Guard, us UserService, p Pinger) *HTTPServer {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	s := &HTTPServer{
		opts:   opts,
		logger: l.With("module", "http_server"),
		auth:   as,
		guard:  g,
		users:  us,
		pinger: p,
	}
	s.echo = s.newEcho()

	return s
}

func (s *HTTPServer) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler

	s.useMiddleware(e)

	e.GET("/healthz", s.health)

	api := e.Group(common.APIPrefix)

	a := api.Group("/auth")
	a.POST("/login", s.login)
	a.POST("/register", s.register)
	a.POST("/refresh-token", s.refreshToken)
	a.POST("/logout", s.logout)

	u := api.Group("/users", s.authenticate)
	listGuards := []echo.MiddlewareFunc{s.requireAuthenticated}
	if s.opts.AdminOnlyUserListing {
		listGuards = append(listGuards, s.requireAuthority(models.AuthorityAdmin))
	}
	u.GET("", s.listUsers, listGuards...)
	u.GET("/", s.listUsers, listGuards...)
	u.GET("/current", s.currentUser, s.requireAuthenticated)
	u.GET("/:username", s.getUser, s.requireAuthenticated)
	u.PATCH("/change-password", s.changePassword, s.requireAuthenticated)

	return e
}

// Handler returns the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.opts.Address)
		errCh <- s.echo.Start(s.opts.Address)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
