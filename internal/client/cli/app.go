package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
)

type App struct {
	config   *config.Config
	client   client.Client
	reader   *bufio.Reader
	out      io.Writer
	userName string
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	if err != nil {
		return nil, err
	}

	return &App{
		config: c,
		client: apiClient,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.client.LoggedIn()
}

// Run starts the REPL and blocks until the user exits. An active session is
// logged out on exit.
func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to gophauth CLI (type 'help' for commands)")

	runREPL(ctx, a, a.getStatus, a.reader)

	if a.isLoggedIn() {
		_ = a.client.Logout(ctx)
	}
}

func (a *App) getStatus() string {
	if a.userName == "" || !a.isLoggedIn() {
		return "(anonymous)"
	}
	return "(" + a.userName + ")"
}
