package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

type fakeClient struct {
	loggedIn bool
	err      error

	user  *models.User
	users []models.User
	msg   string

	gotUser     string
	gotPassword string
	gotEmail    string
	gotChange   []string
	calls       []string
}

func (f *fakeClient) Register(_ context.Context, username, password, email string) (*models.User, error) {
	f.calls = append(f.calls, "register")
	f.gotUser, f.gotPassword, f.gotEmail = username, password, email
	if f.err != nil {
		return nil, f.err
	}
	f.loggedIn = true
	return &models.User{Username: username, Email: email, Role: "USER"}, nil
}

func (f *fakeClient) Login(_ context.Context, username, password string) error {
	f.calls = append(f.calls, "login")
	f.gotUser, f.gotPassword = username, password
	if f.err == nil {
		f.loggedIn = true
	}
	return f.err
}

func (f *fakeClient) Refresh(context.Context) error {
	f.calls = append(f.calls, "refresh")
	return f.err
}

func (f *fakeClient) Logout(context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return f.err
}

func (f *fakeClient) Current(context.Context) (*models.User, error) {
	f.calls = append(f.calls, "current")
	return f.user, f.err
}

func (f *fakeClient) ChangePassword(_ context.Context, oldPassword, newPassword, confirmPassword string) (string, error) {
	f.calls = append(f.calls, "passwd")
	f.gotChange = []string{oldPassword, newPassword, confirmPassword}
	return f.msg, f.err
}

func (f *fakeClient) ListUsers(context.Context) ([]models.User, error) {
	f.calls = append(f.calls, "users")
	return f.users, f.err
}

func (f *fakeClient) GetUser(_ context.Context, username string) (*models.User, error) {
	f.calls = append(f.calls, "user")
	f.gotUser = username
	return f.user, f.err
}

func (f *fakeClient) LoggedIn() bool { return f.loggedIn }

// stubInputs answers text prompts from texts and password prompts from
// passwords, in order.
func stubInputs(t *testing.T, texts []string, passwords []string) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})

	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if len(texts) == 0 {
			return "", io.EOF
		}
		s := texts[0]
		texts = texts[1:]
		return s, nil
	}
	getPassword = func(_ io.Writer, _ string) (string, error) {
		if len(passwords) == 0 {
			return "", io.EOF
		}
		s := passwords[0]
		passwords = passwords[1:]
		return s, nil
	}
}

func newTestApp(c *fakeClient) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{client: c, reader: bufio.NewReader(strings.NewReader("")), out: &out}, &out
}
