// Package client talks to the gophauth HTTP API on behalf of the CLI.
//
// HTTPClient keeps the access and refresh tokens of the current session in
// memory. Calls that need authentication send the access token as a bearer
// token; when the server rejects it, the client refreshes the access token
// once and retries.
//
// # Error Handling
//
// Transport failures wrap ErrUnavailable. Non-2xx replies are returned as
// *APIError carrying the status and the server's message. A refresh that
// yields no token reports ErrUnauthorized.
package client
