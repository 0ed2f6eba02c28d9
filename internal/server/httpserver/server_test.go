package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/ledger"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repotest"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type env struct {
	srv   *HTTPServer
	users *services.UserService
}

func newEnv(t *testing.T, opts Options) *env {
	t.Helper()

	db, repos := repotest.NewSQLite(t)
	codec, err := auth.NewCodec(auth.CodecConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	require.NoError(t, err)

	l := ledger.NewSQLLedger(db, repos)
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	as := services.NewAuthService(db, repos, l, codec, hasher, logging.Nop(), services.AuthOptions{SingleActiveSession: true})
	guard := services.NewAccessGuard(db, repos, l, codec)
	us := services.NewUserService(db, repos, hasher, logging.Nop())

	return &env{
		srv:   NewHTTPServer(opts, logging.Nop(), as, guard, us, db),
		users: us,
	}
}

type reply struct {
	code   int
	data   json.RawMessage
	errors string
	raw    []byte
}

func (e *env) do(t *testing.T, method, path string, body any, token string) reply {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)

	r := reply{code: rec.Code, raw: rec.Body.Bytes()}
	if len(r.raw) > 0 {
		var wr struct {
			Data   json.RawMessage `json:"data"`
			Errors string          `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(r.raw, &wr), string(r.raw))
		r.data, r.errors = wr.Data, wr.Errors
	}
	return r
}

type tokens struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user"`
}

func (e *env) register(t *testing.T, username, password string) tokens {
	t.Helper()
	r := e.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": username,
		"password": password,
		"email":    username + "@mail.com",
	}, "")
	require.Equal(t, http.StatusOK, r.code, string(r.raw))

	var tk tokens
	require.NoError(t, json.Unmarshal(r.data, &tk))
	return tk
}

func (e *env) login(t *testing.T, username, password string) reply {
	t.Helper()
	return e.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, "")
}

func TestRegister(t *testing.T) {
	e := newEnv(t, Options{})

	r := e.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "user",
		"password": "password",
		"email":    "user@mail.com",
		"role":     "ADMIN",
	}, "")
	require.Equal(t, http.StatusOK, r.code)

	var tk tokens
	require.NoError(t, json.Unmarshal(r.data, &tk))
	assert.NotEmpty(t, tk.Token)
	assert.NotEmpty(t, tk.RefreshToken)
	require.NotNil(t, tk.User)
	assert.Equal(t, "user", tk.User.Username)
	assert.Equal(t, models.RoleUser, tk.User.Role)
	assert.NotContains(t, string(r.raw), "password\":\"$")

	r = e.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "user",
		"password": "other",
	}, "")
	assert.Equal(t, http.StatusBadRequest, r.code)
	assert.Equal(t, "Username already registered", r.errors)
}

func TestRegister_Validation(t *testing.T) {
	e := newEnv(t, Options{})

	tests := []struct {
		name string
		body map[string]string
	}{
		{name: "empty", body: map[string]string{}},
		{name: "no password", body: map[string]string{"username": "user"}},
		{name: "bad email", body: map[string]string{"username": "user", "password": "password", "email": "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := e.do(t, http.MethodPost, "/api/v1/auth/register", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, r.code)
			assert.NotEmpty(t, r.errors)
		})
	}
}

func TestLogin(t *testing.T) {
	e := newEnv(t, Options{})
	e.register(t, "user", "password")

	r := e.login(t, "user", "password")
	require.Equal(t, http.StatusOK, r.code)
	var tk tokens
	require.NoError(t, json.Unmarshal(r.data, &tk))
	assert.NotEmpty(t, tk.Token)
	assert.NotEmpty(t, tk.RefreshToken)

	r = e.login(t, "ghost", "password")
	assert.Equal(t, http.StatusUnauthorized, r.code)
	assert.Equal(t, wrongCredentials, r.errors)

	r = e.login(t, "user", "wrong")
	assert.Equal(t, http.StatusForbidden, r.code)
	assert.Equal(t, wrongCredentials, r.errors)

	r = e.login(t, "", "")
	assert.Equal(t, http.StatusBadRequest, r.code)
}

func TestLogin_MalformedJSON(t *testing.T) {
	e := newEnv(t, Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString("{"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	e := newEnv(t, Options{})
	e.register(t, "user", "password")

	for _, path := range []string{"/api/v1/users/", "/api/v1/users/current", "/api/v1/users/user"} {
		for _, token := range []string{"", "garbage"} {
			r := e.do(t, http.MethodGet, path, nil, token)
			assert.Equal(t, http.StatusForbidden, r.code, path)
			assert.Equal(t, accessDenied, r.errors)
		}
	}

	r := e.do(t, http.MethodPatch, "/api/v1/users/change-password", map[string]string{
		"oldPassword": "password", "newPassword": "x", "confirmPassword": "x",
	}, "")
	assert.Equal(t, http.StatusForbidden, r.code)
}

func TestUserQueries(t *testing.T) {
	e := newEnv(t, Options{})
	tk := e.register(t, "user", "password")
	e.register(t, "other", "password")

	r := e.do(t, http.MethodGet, "/api/v1/users/current", nil, tk.Token)
	require.Equal(t, http.StatusOK, r.code)
	var u userResponse
	require.NoError(t, json.Unmarshal(r.data, &u))
	require.NotNil(t, u.User)
	assert.Equal(t, "user", u.User.Username)
	assert.Equal(t, "user@mail.com", u.User.Email)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(r.data, &raw))
	assert.Contains(t, raw, "user")
	assert.NotContains(t, raw, "username")

	r = e.do(t, http.MethodGet, "/api/v1/users/other", nil, tk.Token)
	require.Equal(t, http.StatusOK, r.code)
	u = userResponse{}
	require.NoError(t, json.Unmarshal(r.data, &u))
	require.NotNil(t, u.User)
	assert.Equal(t, "other", u.User.Username)

	r = e.do(t, http.MethodGet, "/api/v1/users/ghost", nil, tk.Token)
	assert.Equal(t, http.StatusBadRequest, r.code)
	assert.Equal(t, "User not found", r.errors)

	r = e.do(t, http.MethodGet, "/api/v1/users/", nil, tk.Token)
	require.Equal(t, http.StatusOK, r.code)
	var list usersResponse
	require.NoError(t, json.Unmarshal(r.data, &list))
	require.Len(t, list.Users, 2)
	assert.Equal(t, "other", list.Users[0].Username)
	assert.Equal(t, "user", list.Users[1].Username)
}

func TestListUsers_AdminOnly(t *testing.T) {
	e := newEnv(t, Options{AdminOnlyUserListing: true})
	tk := e.register(t, "user", "password")

	require.NoError(t, e.users.SeedAdmin(context.Background(), services.SeedConfig{
		Enabled: true, Username: "admin", Password: "password", Email: "admin@mail.com",
	}))

	r := e.do(t, http.MethodGet, "/api/v1/users/", nil, tk.Token)
	assert.Equal(t, http.StatusForbidden, r.code)

	r = e.login(t, "admin", "password")
	require.Equal(t, http.StatusOK, r.code)
	var admin tokens
	require.NoError(t, json.Unmarshal(r.data, &admin))

	r = e.do(t, http.MethodGet, "/api/v1/users/", nil, admin.Token)
	assert.Equal(t, http.StatusOK, r.code)

	r = e.do(t, http.MethodGet, "/api/v1/users/current", nil, tk.Token)
	assert.Equal(t, http.StatusOK, r.code)
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t, Options{})
	tk := e.register(t, "user", "password")

	change := func(old, next, confirm string) reply {
		return e.do(t, http.MethodPatch, "/api/v1/users/change-password", map[string]string{
			"oldPassword": old, "newPassword": next, "confirmPassword": confirm,
		}, tk.Token)
	}

	r := change("wrong", "new-password", "new-password")
	assert.Equal(t, http.StatusUnauthorized, r.code)
	assert.Equal(t, "Wrong password", r.errors)

	r = change("password", "new-password", "different")
	assert.Equal(t, http.StatusBadRequest, r.code)

	r = change("password", "", "")
	assert.Equal(t, http.StatusBadRequest, r.code)

	r = change("password", "new-password", "new-password")
	require.Equal(t, http.StatusOK, r.code)
	var msg messageResponse
	require.NoError(t, json.Unmarshal(r.data, &msg))
	assert.Equal(t, "Password changed successfully", msg.Message)

	assert.Equal(t, http.StatusForbidden, e.login(t, "user", "password").code)
	assert.Equal(t, http.StatusOK, e.login(t, "user", "new-password").code)
}

func TestRefreshToken(t *testing.T) {
	e := newEnv(t, Options{})
	tk := e.register(t, "user", "password")

	r := e.do(t, http.MethodPost, "/api/v1/auth/refresh-token", nil, tk.RefreshToken)
	require.Equal(t, http.StatusOK, r.code)

	var pair services.TokenPair
	require.NoError(t, json.Unmarshal(r.raw, &pair))
	assert.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, tk.RefreshToken, pair.RefreshToken)

	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/api/v1/users/current", nil, tk.Token).code)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/v1/users/current", nil, pair.AccessToken).code)
}

func TestRefreshToken_FailuresAreSilent(t *testing.T) {
	e := newEnv(t, Options{})
	tk := e.register(t, "user", "password")

	for _, token := range []string{"", "garbage", tk.Token} {
		r := e.do(t, http.MethodPost, "/api/v1/auth/refresh-token", nil, token)
		assert.Equal(t, http.StatusOK, r.code)
		assert.Empty(t, r.raw)
	}

	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/v1/users/current", nil, tk.Token).code)
}

func TestLogout(t *testing.T) {
	e := newEnv(t, Options{})
	tk := e.register(t, "user", "password")

	r := e.do(t, http.MethodPost, "/api/v1/auth/logout", nil, tk.Token)
	assert.Equal(t, http.StatusOK, r.code)
	assert.Empty(t, r.raw)

	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/api/v1/users/current", nil, tk.Token).code)

	// repeated and anonymous logouts are no-ops
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/v1/auth/logout", nil, tk.Token).code)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/v1/auth/logout", nil, "").code)
}

func TestLogout_SupersededToken(t *testing.T) {
	e := newEnv(t, Options{})
	tk := e.register(t, "user", "password")

	r := e.do(t, http.MethodPost, "/api/v1/auth/refresh-token", nil, tk.RefreshToken)
	require.Equal(t, http.StatusOK, r.code)
	var pair services.TokenPair
	require.NoError(t, json.Unmarshal(r.raw, &pair))

	assert.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/v1/auth/logout", nil, tk.Token).code)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/v1/users/current", nil, pair.AccessToken).code)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	e := newEnv(t, Options{})

	r := e.do(t, http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, r.code)
	assert.JSONEq(t, `{"status":"ok"}`, string(r.data))

	e.srv.pinger = pingerFunc(func(context.Context) error { return errors.New("down") })
	r = e.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, r.code)
}

func TestRun_StopsOnCancel(t *testing.T) {
	e := newEnv(t, Options{Address: "127.0.0.1:0", ShutdownTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.srv.Run(ctx) }()

	require.Eventually(t, func() bool { return e.srv.echo.ListenerAddr() != nil }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + e.srv.echo.ListenerAddr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_ListenError(t *testing.T) {
	e := newEnv(t, Options{Address: "256.0.0.1:bad"})

	err := e.srv.Run(context.Background())
	assert.Error(t, err)
}
