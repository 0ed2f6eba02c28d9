package common

// AuthorizationHeaderName is the HTTP header carrying bearer tokens.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token inside the Authorization header.
const BearerPrefix = "Bearer "

// APIPrefix is the route prefix shared by the server and the client.
const APIPrefix = "/api/v1"
