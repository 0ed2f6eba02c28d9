// Package cli provides the interactive gophauth command-line client.
//
// It wires configuration and the HTTP API client into a small REPL. The
// session tokens live in memory only; passwords are read from the terminal
// without echo.
//
// Commands:
//   - register / login / logout
//   - refresh: exchange the refresh token for a new access token
//   - whoami / passwd
//   - users / user <name>
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
