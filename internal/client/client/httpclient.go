package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors string          `json:"errors"`
}

type tokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type userReply struct {
	User *models.User `json:"user"`
}

type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

// NewHTTPClient returns a client for the server at baseURL, e.g.
// http://127.0.0.1:8080.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/") + common.APIPrefix,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *HTTPClient) tokens() (string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken, c.refreshToken
}

func (c *HTTPClient) setTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken, c.refreshToken = access, refresh
}

func (c *HTTPClient) LoggedIn() bool {
	access, _ := c.tokens()
	return access != ""
}

// send performs one request and returns the raw body of a 2xx reply.
func (c *HTTPClient) send(ctx context.Context, method, path, token string, in any) ([]byte, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env envelope
		_ = json.Unmarshal(data, &env)
		msg := env.Errors
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}

	return data, nil
}

// call sends a request and decodes the data field of the reply into out.
func (c *HTTPClient) call(ctx context.Context, method, path, token string, in, out any) error {
	data, err := c.send(ctx, method, path, token, in)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode reply data: %w", err)
	}
	return nil
}

// authorized is call with the session access token. A 403 triggers one
// refresh and a retry.
func (c *HTTPClient) authorized(ctx context.Context, method, path string, in, out any) error {
	access, refresh := c.tokens()
	if access == "" {
		return ErrNotLoggedIn
	}

	err := c.call(ctx, method, path, access, in, out)

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden || refresh == "" {
		return err
	}

	if rerr := c.Refresh(ctx); rerr != nil {
		return err
	}

	access, _ = c.tokens()
	return c.call(ctx, method, path, access, in, out)
}

func (c *HTTPClient) Register(ctx context.Context, username, password, email string) (*models.User, error) {
	var resp struct {
		tokenPair
		User *models.User `json:"user"`
	}

	in := map[string]string{"username": username, "password": password, "email": email}
	if err := c.call(ctx, http.MethodPost, "/auth/register", "", in, &resp); err != nil {
		return nil, err
	}

	c.setTokens(resp.Token, resp.RefreshToken)
	return resp.User, nil
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) error {
	var pair tokenPair

	in := map[string]string{"username": username, "password": password}
	if err := c.call(ctx, http.MethodPost, "/auth/login", "", in, &pair); err != nil {
		return err
	}

	c.setTokens(pair.Token, pair.RefreshToken)
	return nil
}

// Refresh exchanges the refresh token for a new access token. The server
// answers an empty body when it declines, which is reported as
// ErrUnauthorized.
func (c *HTTPClient) Refresh(ctx context.Context) error {
	_, refresh := c.tokens()
	if refresh == "" {
		return ErrNotLoggedIn
	}

	data, err := c.send(ctx, http.MethodPost, "/auth/refresh-token", refresh, nil)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return ErrUnauthorized
	}

	var pair tokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	if pair.Token == "" {
		return ErrUnauthorized
	}

	if pair.RefreshToken == "" {
		pair.RefreshToken = refresh
	}
	c.setTokens(pair.Token, pair.RefreshToken)
	return nil
}

// Logout revokes the session on the server and forgets the local tokens.
func (c *HTTPClient) Logout(ctx context.Context) error {
	access, _ := c.tokens()
	if access == "" {
		return ErrNotLoggedIn
	}

	_, err := c.send(ctx, http.MethodPost, "/auth/logout", access, nil)
	c.setTokens("", "")
	return err
}

func (c *HTTPClient) Current(ctx context.Context) (*models.User, error) {
	var resp userReply
	if err := c.authorized(ctx, http.MethodGet, "/users/current", nil, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, errors.New("decode reply: missing user")
	}
	return resp.User, nil
}

func (c *HTTPClient) ChangePassword(ctx context.Context, oldPassword, newPassword, confirmPassword string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}

	in := map[string]string{
		"oldPassword":     oldPassword,
		"newPassword":     newPassword,
		"confirmPassword": confirmPassword,
	}
	if err := c.authorized(ctx, http.MethodPatch, "/users/change-password", in, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]models.User, error) {
	var resp struct {
		Users []models.User `json:"users"`
	}
	if err := c.authorized(ctx, http.MethodGet, "/users/", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

func (c *HTTPClient) GetUser(ctx context.Context, username string) (*models.User, error) {
	var resp userReply
	if err := c.authorized(ctx, http.MethodGet, "/users/"+url.PathEscape(username), nil, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, errors.New("decode reply: missing user")
	}
	return resp.User, nil
}
