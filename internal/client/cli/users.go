package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

func printUsers(w io.Writer, users ...models.User) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tEMAIL\tROLE")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", u.Username, u.Email, u.Role)
	}
	_ = tw.Flush()
}

func (a *App) WhoAmI(ctx context.Context) error {
	u, err := a.client.Current(ctx)
	if err != nil {
		return err
	}
	printUsers(a.out, *u)
	return nil
}

func (a *App) Users(ctx context.Context) error {
	users, err := a.client.ListUsers(ctx)
	if err != nil {
		return err
	}
	printUsers(a.out, users...)
	return nil
}

func (a *App) User(ctx context.Context, username string) error {
	u, err := a.client.GetUser(ctx, username)
	if err != nil {
		return err
	}
	printUsers(a.out, *u)
	return nil
}
